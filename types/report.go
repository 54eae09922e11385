package types

// Grade is the categorical outcome of a distribution install/test run
type Grade string

const (
	GradePass    Grade = "PASS"
	GradeFail    Grade = "FAIL"
	GradeNA      Grade = "NA"
	GradeUnknown Grade = "UNKNOWN"
)

// Valid checks the grade is one of the known outcome classes
func (g Grade) Valid() bool {
	switch g {
	case GradePass, GradeFail, GradeNA, GradeUnknown:
		return true
	}
	return false
}

// Event is one distribution install/test occurrence extracted from a
// build log. The log driver produces one Event per distribution, in
// log order.
type Event struct {
	Locator     string   `json:"locator"`
	DistLabel   string   `json:"dist_label"`
	Grade       Grade    `json:"grade"`
	Output      []string `json:"output,omitempty"`
	ToolVersion string   `json:"tool_version,omitempty"`
}

// Report is the normalized outcome record for one distribution.
// Field set and key names match the on-disk report format; consumers
// access fields by key, order carries no meaning.
type Report struct {
	Author      string            `json:"author"`
	DistLabel   string            `json:"distname"`
	Grade       Grade             `json:"grade"`
	Via         string            `json:"via"`
	TestOutput  string            `json:"test_output"`
	Prereqs     map[string]string `json:"prereqs"`
	DistVersion string            `json:"distversion"`
	Dist        string            `json:"dist"`
}
