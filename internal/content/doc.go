// Package content reads content documents from YAML or JSON files.
//
// A content file holds a bundle of documents grouped by kind:
//
//	quizzes:
//	  - title: Capitals
//	    questions:
//	      - type: single_choice
//	        question: Capital of France?
//	        options: [Paris, Lyon]
//	        correct_index: 0
//	workouts: []
//	listening_sets: []
//
// YAML documents are converted to JSON node by node so that the tagged-variant
// codecs of the domain package apply unchanged and mapping keys keep their
// document order. Documents without an ID or timestamps get them on Prepare.
package content
