package reporting

import (
	"time"

	"github.com/pharmatrace/batch-registry/pkg/model"
)

// DeviationCounts splits a batch's deviations by criticality.
type DeviationCounts struct {
	Total       int64 `json:"total"`
	Critical    int64 `json:"critical"`
	NonCritical int64 `json:"nonCritical"`
}

// BatchSummaryRow is one row of the customer batch summary.
type BatchSummaryRow struct {
	ID            string          `json:"id"`
	APIBatchID    string          `json:"apiBatchId"`
	ProductName   string          `json:"productName"`
	Status        string          `json:"status"`
	DisplayStatus string          `json:"displayStatus"`
	StatusColor   string          `json:"statusColor"`
	Progress      int             `json:"progress"`
	Samples       int64           `json:"samples"`
	Deviations    DeviationCounts `json:"deviations"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// SummaryCounts buckets the entire filtered batch set by display status.
type SummaryCounts struct {
	NotStarted int `json:"notStarted"`
	InProgress int `json:"inProgress"`
	QAHold     int `json:"qaHold"`
	Completed  int `json:"completed"`
	Released   int `json:"released"`
}

// Pagination describes a 1-indexed page window.
type Pagination struct {
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int   `json:"totalPages"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

// CustomerBatchSummary is the paginated per-customer batch view.
type CustomerBatchSummary struct {
	Customer   *model.Customer   `json:"customer"`
	Summary    SummaryCounts     `json:"summary"`
	Batches    []BatchSummaryRow `json:"batches"`
	Pagination Pagination        `json:"pagination"`
}

// SampleWithResults nests a sample's test results.
type SampleWithResults struct {
	model.Sample
	TestResults []model.TestResult `json:"testResults"`
}

// BatchDetail is the full nested batch record.
type BatchDetail struct {
	model.Batch
	Customer        *model.Customer        `json:"customer"`
	Project         *model.Project         `json:"project"`
	ProcessSteps    []model.ProcessStep    `json:"processSteps"`
	Components      []model.BatchComponent `json:"components"`
	Samples         []SampleWithResults    `json:"samples"`
	Deviations      []model.Deviation      `json:"deviations"`
	EquipmentEvents []model.EquipmentEvent `json:"equipmentEvents"`

	TotalProcessSteps int `json:"totalProcessSteps"`
	TotalComponents   int `json:"totalComponents"`
	TotalSamples      int `json:"totalSamples"`
	TotalDeviations   int `json:"totalDeviations"`
	OpenDeviations    int `json:"openDeviations"`
}

// GenealogySample is a sample nested under a genealogy row with its derived
// overall status.
type GenealogySample struct {
	SampleID   string `json:"sampleId"`
	SampleType string `json:"sampleType"`
	Status     string `json:"status"`
}

// GenealogyRow is one (process step, component) pair in step order.
type GenealogyRow struct {
	StepSequence     int               `json:"stepSequence"`
	StepName         string            `json:"stepName"`
	ComponentID      string            `json:"componentId"`
	ComponentName    string            `json:"componentName"`
	ComponentType    string            `json:"componentType"`
	ComponentBatchID string            `json:"componentBatchId,omitempty"`
	SupplierName     string            `json:"supplierName,omitempty"`
	SupplierLot      string            `json:"supplierLot,omitempty"`
	Quantity         float64           `json:"quantity"`
	Unit             string            `json:"unit"`
	COAReceived      bool              `json:"coaReceived"`
	Description      string            `json:"description"`
	HasDeviationLink bool              `json:"hasDeviationLink"`
	Samples          []GenealogySample `json:"samples"`
}

// BatchLineage traces a batch's parent materials and downstream batches.
type BatchLineage struct {
	CurrentBatch    *model.Batch           `json:"currentBatch"`
	ParentMaterials []model.BatchComponent `json:"parentMaterials"`
	ChildBatches    []model.Batch          `json:"childBatches"`
}

// DashboardSummary holds the five global dashboard counters.
type DashboardSummary struct {
	ActiveCustomers int64 `json:"activeCustomers"`
	ActiveBatches   int64 `json:"activeBatches"`
	OpenDeviations  int64 `json:"openDeviations"`
	LabSamples      int64 `json:"labSamples"`
	ReleasedToday   int64 `json:"releasedToday"`
}

// CustomerDashboardRow is one customer's batch status breakdown.
type CustomerDashboardRow struct {
	CustomerID   string        `json:"customerId"`
	CustomerName string        `json:"customerName"`
	Counts       SummaryCounts `json:"counts"`
	TotalBatches int           `json:"totalBatches"`
	LastActivity string        `json:"lastActivity"`
}

// EquipmentUsageRow is one equipment item touched by a batch.
type EquipmentUsageRow struct {
	model.Equipment
	UsageInBatch string `json:"usageInBatch"`
	EventCount   int    `json:"eventCount"`
}

// EquipmentOverview summarizes the equipment used by one batch.
type EquipmentOverview struct {
	SummaryMetrics EquipmentMetrics    `json:"summaryMetrics"`
	EquipmentTable []EquipmentUsageRow `json:"equipmentTable"`
}

// EquipmentMetrics counts each distinct equipment unit exactly once.
type EquipmentMetrics struct {
	TotalEquipment int `json:"totalEquipment"`
	Operational    int `json:"operational"`
	CalibrationDue int `json:"calibrationDue"`
	OpenIssues     int `json:"openIssues"`
}

// EquipmentDetail is one equipment record with its event history.
type EquipmentDetail struct {
	model.Equipment
	History []model.EquipmentEvent `json:"history"`
}
