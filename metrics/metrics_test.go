package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAPIRequest(t *testing.T) {
	counter := APIRequestsTotal.WithLabelValues("GET", "/api/recipe/recipes/{recipe-id}", "404")
	before := testutil.ToFloat64(counter)

	RecordAPIRequest("GET", "/api/recipe/recipes/{recipe-id}", 404, 12*time.Millisecond)
	RecordAPIRequest("GET", "/api/recipe/recipes/{recipe-id}", 404, 3*time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRecordImageUpload(t *testing.T) {
	stored := ImageUploadsTotal.WithLabelValues(UploadStored)
	rejected := ImageUploadsTotal.WithLabelValues(UploadRejected)
	storedBefore := testutil.ToFloat64(stored)
	rejectedBefore := testutil.ToFloat64(rejected)

	RecordImageUpload(UploadStored, 2048)
	RecordImageUpload(UploadRejected, 10)

	assert.Equal(t, storedBefore+1, testutil.ToFloat64(stored))
	assert.Equal(t, rejectedBefore+1, testutil.ToFloat64(rejected))
}
