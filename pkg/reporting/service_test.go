package reporting

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pharmatrace/batch-registry/pkg/model"
)

// newTestDB creates an in-memory SQLite DB with all domain tables migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Customer{},
		&model.Project{},
		&model.Batch{},
		&model.BatchComponent{},
		&model.ProcessStep{},
		&model.Sample{},
		&model.TestResult{},
		&model.Deviation{},
		&model.Equipment{},
		&model.EquipmentEvent{},
	))
	return db
}

type fixture struct {
	t  *testing.T
	db *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, db: newTestDB(t)}
}

func (f *fixture) customer(name string) *model.Customer {
	c := &model.Customer{ID: uuid.NewString(), Name: name}
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

func (f *fixture) project(customerID, name string) *model.Project {
	p := &model.Project{
		ID:          uuid.NewString(),
		ProjectCode: "PRJ-" + uuid.NewString()[:8],
		CustomerID:  customerID,
		Name:        name,
	}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}

func (f *fixture) batch(customerID, projectID, apiBatchID string, status model.BatchStatus) *model.Batch {
	b := &model.Batch{
		ID:          uuid.NewString(),
		APIBatchID:  apiBatchID,
		CustomerID:  customerID,
		ProjectID:   projectID,
		ProductName: "Compound X",
		Status:      status,
	}
	require.NoError(f.t, f.db.Create(b).Error)
	return b
}

func (f *fixture) step(batchID string, seq int, name, equipmentID string, ended bool) *model.ProcessStep {
	st := &model.ProcessStep{
		ID:           uuid.NewString(),
		BatchID:      batchID,
		StepSequence: seq,
		StepName:     name,
		EquipmentID:  equipmentID,
	}
	if ended {
		now := time.Now()
		st.EndedAt = &now
	}
	require.NoError(f.t, f.db.Create(st).Error)
	return st
}

func (f *fixture) component(batchID, stepID, name, componentType, componentBatchID string) *model.BatchComponent {
	c := &model.BatchComponent{
		ID:               uuid.NewString(),
		BatchID:          batchID,
		ProcessStepID:    stepID,
		ComponentName:    name,
		ComponentType:    componentType,
		ComponentBatchID: componentBatchID,
		Quantity:         1,
		Unit:             "kg",
	}
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

func (f *fixture) sample(batchID, componentID string) *model.Sample {
	s := &model.Sample{
		ID:               uuid.NewString(),
		SampleID:         "S-" + uuid.NewString()[:8],
		BatchID:          batchID,
		BatchComponentID: componentID,
		SampleType:       "In-Process",
		CollectedAt:      time.Now(),
	}
	require.NoError(f.t, f.db.Create(s).Error)
	return s
}

func (f *fixture) result(sampleID, result string) *model.TestResult {
	r := &model.TestResult{
		ID:       uuid.NewString(),
		TestID:   "T-" + uuid.NewString()[:8],
		SampleID: sampleID,
		Result:   result,
	}
	require.NoError(f.t, f.db.Create(r).Error)
	return r
}

func (f *fixture) deviation(batchID, severity, status, linkedType, linkedID string) *model.Deviation {
	d := &model.Deviation{
		ID:               uuid.NewString(),
		DeviationNo:      "DEV-" + uuid.NewString()[:8],
		BatchID:          batchID,
		Severity:         severity,
		Status:           status,
		LinkedEntityType: linkedType,
		LinkedEntityID:   linkedID,
		RaisedAt:         time.Now(),
	}
	require.NoError(f.t, f.db.Create(d).Error)
	return d
}

func (f *fixture) equipment(id, name, status, calibration string) *model.Equipment {
	e := &model.Equipment{
		ID:                id,
		Name:              name,
		Status:            status,
		CalibrationStatus: calibration,
	}
	require.NoError(f.t, f.db.Create(e).Error)
	return e
}

func (f *fixture) equipmentEvent(equipmentID, batchID, eventType string, occurredAt time.Time) *model.EquipmentEvent {
	e := &model.EquipmentEvent{
		ID:          uuid.NewString(),
		EquipmentID: equipmentID,
		BatchID:     batchID,
		EventType:   eventType,
		OccurredAt:  occurredAt,
	}
	require.NoError(f.t, f.db.Create(e).Error)
	return e
}

func TestDisplayStatus(t *testing.T) {
	tests := []struct {
		status model.BatchStatus
		label  string
		color  string
	}{
		{model.BatchInProcess, "In Progress", "yellow"},
		{model.BatchOnHold, "QA Hold", "gray"},
		{model.BatchReleased, "Released", "green"},
		{model.BatchCompleted, "Completed", "orange"},
		{model.BatchNotStarted, "Not Started", "blue"},
		{model.BatchRejected, "Not Started", "blue"},
	}
	for _, tt := range tests {
		label, color := displayStatus(tt.status)
		require.Equal(t, tt.label, label)
		require.Equal(t, tt.color, color)
	}
}
