package reporting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

func TestBatchDetail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.db)

	acme := f.customer("Acme Pharma")
	project := f.project(acme.ID, "Oncology API")
	b := f.batch(acme.ID, project.ID, "B-700", model.BatchInProcess)

	f.step(b.ID, 2, "Granulation", "", false)
	f.step(b.ID, 1, "Dispensing", "", true)

	comp := f.component(b.ID, "", "API Lot 9", "API", "")

	s1 := f.sample(b.ID, comp.ID)
	f.result(s1.ID, model.ResultPass)
	f.result(s1.ID, model.ResultPending)
	f.sample(b.ID, "")

	f.deviation(b.ID, model.SeverityMajor, model.DeviationOpen, "", "")
	f.deviation(b.ID, model.SeverityMinor, model.DeviationClosed, "", "")

	detail, err := svc.BatchDetail(ctx, b.APIBatchID)
	require.NoError(t, err)

	assert.Equal(t, b.ID, detail.Batch.ID)
	require.NotNil(t, detail.Customer)
	assert.Equal(t, "Acme Pharma", detail.Customer.Name)
	require.NotNil(t, detail.Project)
	assert.Equal(t, "Oncology API", detail.Project.Name)

	require.Len(t, detail.ProcessSteps, 2)
	assert.Equal(t, "Dispensing", detail.ProcessSteps[0].StepName, "steps ordered by sequence")

	assert.Equal(t, 2, detail.TotalProcessSteps)
	assert.Equal(t, 1, detail.TotalComponents)
	assert.Equal(t, 2, detail.TotalSamples)
	assert.Equal(t, 2, detail.TotalDeviations)
	assert.Equal(t, 1, detail.OpenDeviations)

	var withResults *SampleWithResults
	for i := range detail.Samples {
		if detail.Samples[i].Sample.ID == s1.ID {
			withResults = &detail.Samples[i]
		}
	}
	require.NotNil(t, withResults)
	assert.Len(t, withResults.TestResults, 2)
}

func TestBatchDetail_Unknown(t *testing.T) {
	svc := NewService(newTestDB(t))
	_, err := svc.BatchDetail(context.Background(), "nope")
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.CodeNotFound, apiErr.Code)
}
