package model

// BatchStatus enumerates the canonical batch lifecycle states.
type BatchStatus string

const (
	BatchNotStarted BatchStatus = "Not Started"
	BatchInProcess  BatchStatus = "In-Process"
	BatchOnHold     BatchStatus = "On-Hold"
	BatchCompleted  BatchStatus = "Completed"
	BatchReleased   BatchStatus = "Released"
	BatchRejected   BatchStatus = "Rejected"
)

// BatchStatuses lists every valid batch status.
var BatchStatuses = []BatchStatus{
	BatchNotStarted,
	BatchInProcess,
	BatchOnHold,
	BatchCompleted,
	BatchReleased,
	BatchRejected,
}

// ValidBatchStatus reports whether s is in the canonical status set.
func ValidBatchStatus(s BatchStatus) bool {
	for _, v := range BatchStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Project statuses.
const (
	ProjectOngoing   = "Ongoing"
	ProjectCompleted = "Completed"
	ProjectOnHold    = "On-Hold"
)

// Deviation severities and statuses.
const (
	SeverityMinor    = "Minor"
	SeverityMajor    = "Major"
	SeverityCritical = "Critical"

	DeviationOpen       = "Open"
	DeviationInProgress = "In-Progress"
	DeviationClosed     = "Closed"
)

// Test result values. Pending and In-Progress block batch release.
const (
	ResultPending    = "Pending"
	ResultInProgress = "In-Progress"
	ResultPass       = "Pass"
	ResultFail       = "Fail"
	ResultNA         = "NA"
)

// Equipment operational and calibration statuses.
const (
	EquipmentAvailable   = "Available"
	EquipmentInUse       = "In Use"
	EquipmentMaintenance = "Maintenance"
	EquipmentFaulted     = "Faulted"

	CalibrationCurrent = "Calibrated"
	CalibrationDue     = "Due"
	CalibrationOverdue = "Overdue"
)

// User roles. RoleAdmin bypasses project scoping.
const (
	RoleOperator   = "Operator"
	RoleAnalyst    = "Analyst"
	RoleQA         = "QA"
	RoleSupervisor = "Supervisor"
	RoleAdmin      = "Admin"
)

// Linked entity types a deviation may reference.
const (
	LinkSample         = "Sample"
	LinkTestResult     = "TestResult"
	LinkProcessStep    = "ProcessStep"
	LinkEquipment      = "Equipment"
	LinkBatchComponent = "BatchComponent"
)
