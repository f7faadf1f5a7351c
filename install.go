package unpack

// InstallData describes one installation.
type InstallData struct {
	// InstallPath is the target directory. It is created when missing.
	InstallPath string

	// SelectedPacks names the packs to install. When empty, required and
	// preselected packs are installed.
	SelectedPacks []string

	// Unattended disables every prompt. Ask-style decisions use their
	// default answer.
	Unattended bool

	// Variables seeds the default substitutor. INSTALL_PATH is added when
	// missing. Ignored when WithSubstitutor is used.
	Variables map[string]string
}

// Result summarizes a run.
type Result struct {
	// Success is false when the run failed or was interrupted.
	Success bool

	// Interrupted is set when the run stopped because of an interrupt.
	Interrupted bool

	// InstalledPacks lists the names of packs that were processed.
	InstalledPacks []string

	// InstalledFiles lists installed targets, relative to the install path.
	InstalledFiles []string

	// Queued counts files handed to the deferred queue.
	Queued int

	// Removed lists paths deleted by the update check.
	Removed []string

	// Warnings lists accepted warnings.
	Warnings []error

	// RebootRequired reports that deferred moves could only be scheduled.
	RebootRequired bool
}
