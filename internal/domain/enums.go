package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the transcript roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ToolName identifies a local operation the model may ask to run.
type ToolName string

const (
	ToolSearchCourses    ToolName = "searchCourses"
	ToolGetCourseDetails ToolName = "getCourseDetails"
)
