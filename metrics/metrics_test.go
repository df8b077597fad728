package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/recipes/", "200"))

	RecordAPIRequest("GET", "/api/recipes/", "200", 15*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/recipes/", "200"))
	assert.InDelta(t, before+1, after, 0.0001)
}

func TestRecordMembershipChange(t *testing.T) {
	counter := MembershipChanges.WithLabelValues("favourite", "add")
	before := testutil.ToFloat64(counter)

	RecordMembershipChange("favourite", "add")
	RecordMembershipChange("favourite", "add")

	assert.InDelta(t, before+2, testutil.ToFloat64(counter), 0.0001)
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	assert.InDelta(t, before+1, testutil.ToFloat64(APIActiveRequests), 0.0001)

	TrackActiveRequest(false)
	assert.InDelta(t, before, testutil.ToFloat64(APIActiveRequests), 0.0001)
}
