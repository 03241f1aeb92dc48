// Package model defines the persisted entities for the batch registry.
// All primary keys are generated UUIDs except Equipment, which carries a
// human-assigned identifier.
package model

import "time"

// Customer is a contract-manufacturing client owning zero or more projects.
type Customer struct {
	ID           string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	ContactName  string    `gorm:"column:contact_name" json:"contactName,omitempty"`
	ContactEmail string    `gorm:"column:contact_email" json:"contactEmail,omitempty"`
	ContactPhone string    `gorm:"column:contact_phone" json:"contactPhone,omitempty"`
	Address      string    `gorm:"column:address" json:"address,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// Project groups batches for a customer under a unique project code.
type Project struct {
	ID          string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	ProjectCode string    `gorm:"column:project_code;uniqueIndex;not null" json:"projectCode"`
	CustomerID  string    `gorm:"column:customer_id;index;not null" json:"customerId"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Status      string    `gorm:"column:status;default:Ongoing;not null" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// Batch is one manufacturing run of a product for a customer/project.
// ReleasedAt and ReleasedBy are set only on the transition into Released.
type Batch struct {
	ID           string      `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	APIBatchID   string      `gorm:"column:api_batch_id;uniqueIndex;not null" json:"apiBatchId"`
	CustomerID   string      `gorm:"column:customer_id;index;not null" json:"customerId"`
	ProjectID    string      `gorm:"column:project_id;index;not null" json:"projectId"`
	ProductName  string      `gorm:"column:product_name" json:"productName"`
	Status       BatchStatus `gorm:"column:status;default:Not Started;not null" json:"status"`
	Quantity     float64     `gorm:"column:quantity" json:"quantity,omitempty"`
	Unit         string      `gorm:"column:unit" json:"unit,omitempty"`
	StartedAt    *time.Time  `gorm:"column:started_at" json:"startedAt,omitempty"`
	CompletedAt  *time.Time  `gorm:"column:completed_at" json:"completedAt,omitempty"`
	ReleasedAt   *time.Time  `gorm:"column:released_at" json:"releasedAt,omitempty"`
	ReleasedBy   string      `gorm:"column:released_by" json:"releasedBy,omitempty"`
	ReleaseNotes string      `gorm:"column:release_notes" json:"releaseNotes,omitempty"`
	CreatedAt    time.Time   `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time   `gorm:"column:updated_at" json:"updatedAt"`
}

// BatchComponent records a raw-material, intermediate, or API usage inside a
// batch. ComponentBatchID is an optional indexed lookup key naming the
// upstream batch the material came from, enabling lineage queries without an
// ownership edge.
type BatchComponent struct {
	ID               string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	BatchID          string    `gorm:"column:batch_id;index;not null" json:"batchId"`
	ProcessStepID    string    `gorm:"column:process_step_id;index" json:"processStepId,omitempty"`
	ComponentName    string    `gorm:"column:component_name;not null" json:"componentName"`
	ComponentType    string    `gorm:"column:component_type" json:"componentType"`
	ComponentBatchID string    `gorm:"column:component_batch_id;index" json:"componentBatchId,omitempty"`
	SupplierName     string    `gorm:"column:supplier_name" json:"supplierName,omitempty"`
	SupplierLot      string    `gorm:"column:supplier_lot" json:"supplierLot,omitempty"`
	Quantity         float64   `gorm:"column:quantity" json:"quantity"`
	Unit             string    `gorm:"column:unit" json:"unit"`
	COAReceived      bool      `gorm:"column:coa_received" json:"coaReceived"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"createdAt"`
}

// ProcessStep is an ordered manufacturing stage within a batch. It embeds a
// snapshot of the equipment state at execution time and a QA approval status.
type ProcessStep struct {
	ID                string     `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	BatchID           string     `gorm:"column:batch_id;index;not null" json:"batchId"`
	StepSequence      int        `gorm:"column:step_sequence;not null" json:"stepSequence"`
	StepName          string     `gorm:"column:step_name;not null" json:"stepName"`
	EquipmentID       string     `gorm:"column:equipment_id;index" json:"equipmentId,omitempty"`
	EquipmentSnapshot JSONMap    `gorm:"column:equipment_snapshot;type:text" json:"equipmentSnapshot,omitempty"`
	QAStatus          string     `gorm:"column:qa_status;default:Pending" json:"qaStatus"`
	StartedAt         *time.Time `gorm:"column:started_at" json:"startedAt,omitempty"`
	EndedAt           *time.Time `gorm:"column:ended_at" json:"endedAt,omitempty"`
}

// Sample is material collected from a batch, optionally tied to a component.
type Sample struct {
	ID               string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	SampleID         string    `gorm:"column:sample_id;uniqueIndex;not null" json:"sampleId"`
	BatchID          string    `gorm:"column:batch_id;index;not null" json:"batchId"`
	BatchComponentID string    `gorm:"column:batch_component_id;index" json:"batchComponentId,omitempty"`
	SampleType       string    `gorm:"column:sample_type" json:"sampleType"`
	CollectedBy      string    `gorm:"column:collected_by" json:"collectedBy,omitempty"`
	CollectedAt      time.Time `gorm:"column:collected_at" json:"collectedAt"`
}

// TestResult is one analytical measurement against a sample.
type TestResult struct {
	ID          string      `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	TestID      string      `gorm:"column:test_id;uniqueIndex;not null" json:"testId"`
	SampleID    string      `gorm:"column:sample_id;index;not null" json:"sampleId"`
	TestName    string      `gorm:"column:test_name" json:"testName"`
	Result      string      `gorm:"column:result;default:Pending;not null" json:"result"`
	EquipmentID string      `gorm:"column:equipment_id" json:"equipmentId,omitempty"`
	Reagents    ReagentList `gorm:"column:reagents;type:text" json:"reagents,omitempty"`
	AnalystID   string      `gorm:"column:analyst_id" json:"analystId,omitempty"`
	TestedAt    *time.Time  `gorm:"column:tested_at" json:"testedAt,omitempty"`
}

// Deviation is a recorded nonconformance against a batch. LinkedEntityType
// determines which entity LinkedEntityID points at. The resolution fields
// are set only when the deviation is closed.
type Deviation struct {
	ID               string     `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	DeviationNo      string     `gorm:"column:deviation_no;uniqueIndex;not null" json:"deviationNo"`
	BatchID          string     `gorm:"column:batch_id;index;not null" json:"batchId"`
	Severity         string     `gorm:"column:severity;default:Minor;not null" json:"severity"`
	Status           string     `gorm:"column:status;default:Open;not null" json:"status"`
	Title            string     `gorm:"column:title" json:"title"`
	Description      string     `gorm:"column:description" json:"description,omitempty"`
	LinkedEntityType string     `gorm:"column:linked_entity_type" json:"linkedEntityType,omitempty"`
	LinkedEntityID   string     `gorm:"column:linked_entity_id;index" json:"linkedEntityId,omitempty"`
	RaisedBy         string     `gorm:"column:raised_by" json:"raisedBy,omitempty"`
	RaisedAt         time.Time  `gorm:"column:raised_at" json:"raisedAt"`
	ResolutionNotes  string     `gorm:"column:resolution_notes" json:"resolutionNotes,omitempty"`
	ResolvedBy       string     `gorm:"column:resolved_by" json:"resolvedBy,omitempty"`
	ResolvedAt       *time.Time `gorm:"column:resolved_at" json:"resolvedAt,omitempty"`
	CAPAID           string     `gorm:"column:capa_id" json:"capaId,omitempty"`
}

// CAPA is a corrective/preventive action, optionally linked from a deviation.
type CAPA struct {
	ID          string     `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	CAPANo      string     `gorm:"column:capa_no;uniqueIndex;not null" json:"capaNo"`
	Title       string     `gorm:"column:title" json:"title"`
	Description string     `gorm:"column:description" json:"description,omitempty"`
	Status      string     `gorm:"column:status;default:Open;not null" json:"status"`
	Owner       string     `gorm:"column:owner" json:"owner,omitempty"`
	DueAt       *time.Time `gorm:"column:due_at" json:"dueAt,omitempty"`
	ClosedAt    *time.Time `gorm:"column:closed_at" json:"closedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"createdAt"`
}

// Equipment is a manufacturing or lab instrument. The id is human-assigned,
// not generated. Calibration status is tracked independently of the
// operational status.
type Equipment struct {
	ID                string     `gorm:"primaryKey;column:id" json:"id"`
	Name              string     `gorm:"column:name;not null" json:"name"`
	Type              string     `gorm:"column:type" json:"type,omitempty"`
	Status            string     `gorm:"column:status;default:Available;not null" json:"status"`
	CalibrationStatus string     `gorm:"column:calibration_status;default:Calibrated" json:"calibrationStatus"`
	LastCalibratedAt  *time.Time `gorm:"column:last_calibrated_at" json:"lastCalibratedAt,omitempty"`
	Location          string     `gorm:"column:location" json:"location,omitempty"`
	CreatedAt         time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt         time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

// EquipmentEvent is a timestamped usage, calibration, cleaning, or fault
// record tying an equipment item to a batch and process step.
type EquipmentEvent struct {
	ID            string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	EquipmentID   string    `gorm:"column:equipment_id;index;not null" json:"equipmentId"`
	BatchID       string    `gorm:"column:batch_id;index" json:"batchId,omitempty"`
	ProcessStepID string    `gorm:"column:process_step_id" json:"processStepId,omitempty"`
	EventType     string    `gorm:"column:event_type;not null" json:"eventType"`
	Notes         string    `gorm:"column:notes" json:"notes,omitempty"`
	RecordedBy    string    `gorm:"column:recorded_by" json:"recordedBy,omitempty"`
	OccurredAt    time.Time `gorm:"column:occurred_at" json:"occurredAt"`
}

// User is an authenticated caller. Role is the coarse role name carried in
// token claims; RoleID references the capability Role record that owns the
// fine-grained grants.
type User struct {
	ID           string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Role         string    `gorm:"column:role;not null" json:"role"`
	RoleID       string    `gorm:"column:role_id;index" json:"roleId,omitempty"`
	Active       bool      `gorm:"column:active;default:true" json:"active"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// Role is the single capability model: a named role owning a set of
// (resource, action) grants. Permission checks are grant lookups.
type Role struct {
	ID          string      `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Name        string      `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Description string      `gorm:"column:description" json:"description,omitempty"`
	Grants      []RoleGrant `gorm:"foreignKey:RoleID" json:"grants,omitempty"`
	CreatedAt   time.Time   `gorm:"column:created_at" json:"createdAt"`
}

// RoleGrant allows one action on one resource for the owning role.
type RoleGrant struct {
	ID       string `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	RoleID   string `gorm:"column:role_id;index;not null" json:"roleId"`
	Resource string `gorm:"column:resource;not null" json:"resource"`
	Action   string `gorm:"column:action;not null" json:"action"`
}

// ProjectAssignment scopes a non-admin user to a project.
type ProjectAssignment struct {
	ID           string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	UserID       string    `gorm:"column:user_id;index;not null" json:"userId"`
	ProjectID    string    `gorm:"column:project_id;index;not null" json:"projectId"`
	AssignedRole string    `gorm:"column:assigned_role" json:"assignedRole,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
}
