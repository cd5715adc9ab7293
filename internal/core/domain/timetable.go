package domain

// TimetableOccurrence is one scheduled slot inside the timetable snapshot.
// Field names match the timetable.json seed files byte for byte.
type TimetableOccurrence struct {
	Day             string `json:"day"`
	Time            string `json:"time"`
	MaxCapacity     int    `json:"max_capacity"`
	CurrentCapacity int    `json:"current_capacity"`
}

// TimetableClass is one class entry inside the timetable snapshot.
type TimetableClass struct {
	Name        string                `json:"name"`
	Instructor  string                `json:"instructor"`
	Occurrences []TimetableOccurrence `json:"occurrences"`
}

// Timetable is the denormalized external snapshot of the class/occurrence
// graph. Export writes it, Import seeds from it.
type Timetable []TimetableClass
