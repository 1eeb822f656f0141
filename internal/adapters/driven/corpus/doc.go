// Package corpus loads exam items from disk.
//
// Two formats are understood. Tabular sources are CSV files whose header
// names at least the id and content columns. Structured sources are JSON
// arrays of question objects:
//
//	[
//	  {
//	    "id": 1,
//	    "year": "106",
//	    "subject": "chemistry",
//	    "group_id": "g1",
//	    "group_context": "shared passage",
//	    "stem": "Which metal ...?",
//	    "options": {"A": "copper", "B": "gold"}
//	  }
//	]
//
// Options keep the key order of the source file. A directory of JSON files
// is merged in filename order.
package corpus
