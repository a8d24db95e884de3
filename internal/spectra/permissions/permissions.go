package permissions

import "github.com/spectraproject/spectra/internal/common/auth/permission"

const (
	SubmitJobs             permission.Permission = "submit_jobs"
	SubmitHighPriorityJobs permission.Permission = "submit_high_priority_jobs"
	CancelJobs             permission.Permission = "cancel_jobs"
	CancelAnyJobs          permission.Permission = "cancel_any_jobs"
	WatchAllJobs           permission.Permission = "watch_all_jobs"
)
