package intent

import "strings"

// Label is a fallback-tier intent.
type Label string

const (
	CreateFile                Label = "CREATE_FILE"
	DeleteFile                Label = "DELETE_FILE"
	CreateFolder              Label = "CREATE_FOLDER"
	DeleteFolder              Label = "DELETE_FOLDER"
	ListFiles                 Label = "LIST_FILES"
	OpenApplication           Label = "OPEN_APPLICATION"
	CloseApplication          Label = "CLOSE_APPLICATION"
	SwitchApplication         Label = "SWITCH_APPLICATION"
	ListInstalledApplications Label = "LIST_INSTALLED_APPLICATIONS"
	ListRunningApplications   Label = "LIST_RUNNING_APPLICATIONS"

	// Unrecognized is returned when no label clears the confidence gate.
	Unrecognized Label = "UNRECOGNIZED"
)

// Labels returns the closed label set in a stable order.
func Labels() []Label {
	return []Label{
		CreateFile,
		DeleteFile,
		CreateFolder,
		DeleteFolder,
		ListFiles,
		OpenApplication,
		CloseApplication,
		SwitchApplication,
		ListInstalledApplications,
		ListRunningApplications,
	}
}

// ParseLabel maps a corpus label name onto the closed set.
func ParseLabel(s string) (Label, bool) {
	want := Label(strings.ToUpper(strings.TrimSpace(s)))
	for _, l := range Labels() {
		if l == want {
			return l, true
		}
	}
	return Unrecognized, false
}
