package tabular

import "fmt"

// Table names the engine depends on.
const (
	TableStudents         = "students"
	TableWellnessSessions = "wellness_sessions"
	TableLearningSessions = "learning_sessions"
)

// requiredColumns lists the columns a table must carry before the engine will
// accept it. Sessions always need a subject reference and a timestamp.
var requiredColumns = map[string][]string{
	TableStudents:         {"student_id"},
	TableWellnessSessions: {"student_id", "created_at"},
	TableLearningSessions: {"student_id", "created_at"},
}

// SchemaError reports a missing table or a missing required column. It is
// fatal to the query or rule that needed the data, not to the whole batch.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("table %q is not loaded", e.Table)
	}
	return fmt.Sprintf("table %q is missing required column %q", e.Table, e.Column)
}
