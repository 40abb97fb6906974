package models

// ReviewOutline is the structured study outline the reviewer agent builds from
// retrieved reference material before rendering it into a document.
type ReviewOutline struct {
	Topic       string       `json:"topic"`
	Overview    string       `json:"Lesson Overview"`
	Objectives  []string     `json:"Learning Objectives"`
	KeyConcepts []KeyConcept `json:"Key Concepts and Explanations"`
	Examples    []string     `json:"Application or Examples"`
	MemoryTips  []string     `json:"Memory Tips"`
	QuickRecap  []string     `json:"Quick Recap"`
}

// KeyConcept is one named concept with its expanded explanation.
type KeyConcept struct {
	Subtopic    string `json:"Subtopic"`
	Explanation string `json:"Explanation"`
}
