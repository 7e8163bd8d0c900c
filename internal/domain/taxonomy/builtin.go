package taxonomy

import (
	"fmt"

	"github.com/prepwise/interview-intel/pkg/types/insight"
)

// Builtin category multipliers.  System design outweighs pure coding topics;
// technology name-drops carry the least signal.
const (
	systemDesignMultiplier   = 1.6
	dataStructuresMultiplier = 1.5
	algorithmsMultiplier     = 1.4
	conceptsMultiplier       = 1.2
	technologiesMultiplier   = 1.1
	behavioralMultiplier     = 1.0
)

// Builtin returns the default interview-domain taxonomy.  It is used whenever
// no taxonomy file or inline categories are configured.
func Builtin() *Taxonomy {
	t, err := New(builtinDefs())
	if err != nil {
		panic(fmt.Sprintf("taxonomy: builtin definitions invalid: %v", err))
	}
	return t
}

// builtinDefs declares the default term families.  Terms that genuinely
// belong to several categories (mysql is both a system-design mention and a
// technology) are listed in both; lookup resolution favours the higher
// multiplier.
func builtinDefs() []CategoryDef {
	return []CategoryDef{
		{
			Category:   insight.CategorySystemDesign,
			Multiplier: systemDesignMultiplier,
			Families: []FamilyDef{
				{Canonical: "system design", Terms: []string{
					"system design", "design a system", "high level design", "hld", "architecture",
				}},
				{Canonical: "scalability", Terms: []string{
					"scalability", "scale", "scaling", "horizontal scaling", "vertical scaling",
					"scale out", "scale up",
				}},
				{Canonical: "load balancer", Terms: []string{
					"load balancer", "load balancing", "nginx", "haproxy", "round robin",
				}},
				{Canonical: "database design", Terms: []string{
					"database", "sql", "nosql", "mongodb", "mysql", "postgresql",
					"cassandra", "dynamodb",
				}},
				{Canonical: "caching", Terms: []string{
					"cache", "caching", "redis", "memcached", "cdn", "content delivery network",
				}},
				{Canonical: "microservices", Terms: []string{
					"microservice", "microservices", "api", "rest api", "service oriented",
					"distributed systems",
				}},
				{Canonical: "message queue", Terms: []string{
					"message queue", "kafka", "rabbitmq", "pub sub", "event driven",
				}},
				{Canonical: "consistency", Terms: []string{
					"consistency", "acid", "cap theorem", "eventual consistency",
					"strong consistency",
				}},
			},
		},
		{
			Category:   insight.CategoryDataStructures,
			Multiplier: dataStructuresMultiplier,
			Families: []FamilyDef{
				{Canonical: "array", Terms: []string{
					"array", "arrays", "list", "arraylist", "vector", "1d array", "2d array",
				}},
				{Canonical: "linked list", Terms: []string{
					"linked list", "linkedlist", "singly linked", "doubly linked", "circular linked",
				}},
				{Canonical: "stack", Terms: []string{
					"stack", "stacks", "lifo", "stack overflow",
				}},
				{Canonical: "queue", Terms: []string{
					"queue", "queues", "fifo", "enqueue", "dequeue", "circular queue",
					"priority queue",
				}},
				{Canonical: "tree", Terms: []string{
					"tree", "trees", "binary tree", "bst", "binary search tree",
					"balanced tree", "avl tree", "red black tree",
				}},
				{Canonical: "heap", Terms: []string{
					"heap", "heaps", "min heap", "max heap", "binary heap", "heapify",
				}},
				{Canonical: "hash table", Terms: []string{
					"hash", "hashmap", "hash table", "hash set", "dictionary", "map", "hashtable",
				}},
				{Canonical: "graph", Terms: []string{
					"graph", "graphs", "vertices", "edges", "adjacency", "directed graph",
					"undirected graph", "weighted graph",
				}},
				{Canonical: "trie", Terms: []string{
					"trie", "prefix tree", "suffix tree", "radix tree",
				}},
			},
		},
		{
			Category:   insight.CategoryAlgorithms,
			Multiplier: algorithmsMultiplier,
			Families: []FamilyDef{
				{Canonical: "sorting", Terms: []string{
					"sort", "sorting", "merge sort", "quick sort", "heap sort", "bubble sort",
					"insertion sort", "selection sort",
				}},
				{Canonical: "searching", Terms: []string{
					"search", "binary search", "linear search", "dfs", "bfs",
					"depth first", "breadth first",
				}},
				{Canonical: "dynamic programming", Terms: []string{
					"dynamic programming", "dp", "memoization", "tabulation",
					"optimal substructure", "overlapping subproblems",
				}},
				{Canonical: "greedy", Terms: []string{
					"greedy", "greedy algorithm", "greedy approach", "local optimum",
				}},
				{Canonical: "recursion", Terms: []string{
					"recursion", "recursive", "backtracking", "divide and conquer",
				}},
				{Canonical: "two pointers", Terms: []string{
					"two pointer", "two pointers", "sliding window", "fast slow pointer",
				}},
				{Canonical: "string algorithms", Terms: []string{
					"string", "substring", "string matching", "kmp", "rabin karp",
					"string manipulation",
				}},
			},
		},
		{
			Category:   insight.CategoryConcepts,
			Multiplier: conceptsMultiplier,
			Families: []FamilyDef{
				{Canonical: "oop", Terms: []string{
					"oop", "object oriented", "inheritance", "polymorphism",
					"encapsulation", "abstraction",
				}},
				{Canonical: "concurrency", Terms: []string{
					"thread", "threading", "concurrency", "parallel", "async",
					"synchronization", "mutex", "semaphore",
				}},
				{Canonical: "design patterns", Terms: []string{
					"design pattern", "design patterns", "singleton", "factory",
					"observer pattern", "decorator", "strategy pattern", "builder", "adapter",
				}},
				{Canonical: "time complexity", Terms: []string{
					"time complexity", "space complexity", "big o", "complexity analysis",
				}},
			},
		},
		{
			Category:   insight.CategoryTechnologies,
			Multiplier: technologiesMultiplier,
			Families: []FamilyDef{
				{Canonical: "programming languages", Terms: []string{
					"java", "python", "c++", "cpp", "javascript", "golang", "rust",
					"scala", "kotlin",
				}},
				{Canonical: "frameworks", Terms: []string{
					"spring", "django", "react", "angular", "express", "flask", "nodejs",
				}},
				{Canonical: "cloud", Terms: []string{
					"aws", "azure", "gcp", "docker", "kubernetes", "ec2", "s3", "lambda",
				}},
				{Canonical: "databases", Terms: []string{
					"mysql", "postgresql", "mongodb", "cassandra", "dynamodb", "elasticsearch",
				}},
			},
		},
		{
			Category:   insight.CategoryBehavioral,
			Multiplier: behavioralMultiplier,
			Families: []FamilyDef{
				{Canonical: "behavioral", Terms: []string{
					"behavioral", "behavioural", "culture fit", "leadership", "teamwork",
					"conflict resolution", "star method",
				}},
			},
		},
	}
}
