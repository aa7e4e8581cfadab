package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIntegration_ConcurrentAccept races several intermediaries for the same
// REGISTERED batch. The compare-and-swap on status guarantees exactly one
// winner takes custody; every other attempt observes the batch already moved
// on and gets a conflict.
func TestIntegration_ConcurrentAccept(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	producerToken := signup(t, app, "race-farm@example.com", "producer")
	batchID := registerBatch(t, app, producerToken, 100)

	const contenders = 10
	tokens := make([]string, contenders)
	for i := range tokens {
		tokens[i] = signup(t, app, fmt.Sprintf("race-truck-%d@example.com", i), "intermediary")
	}

	var (
		wg        sync.WaitGroup
		accepted  int32
		conflicts int32
	)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()

			req, err := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/batches/"+batchID+"/accept", nil)
			if err != nil {
				t.Error(err)
				return
			}
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Error(err)
				return
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusOK:
				atomic.AddInt32(&accepted, 1)
			case http.StatusConflict:
				atomic.AddInt32(&conflicts, 1)
			default:
				t.Errorf("unexpected status %d", resp.StatusCode)
			}
		}(tokens[i])
	}

	wg.Wait()

	assert.Equal(t, int32(1), accepted, "exactly one contender should win the swap")
	assert.Equal(t, int32(contenders-1), conflicts)

	// The winner's custody stuck: the batch is IN_TRANSIT and exactly one
	// pending payment was produced by the single successful transition.
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/batches/"+batchID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "IN_TRANSIT", data["status"])
	assert.NotNil(t, data["custodian_id"])

	events, err := listEventActions(app, batchID)
	require.NoError(t, err)
	assert.Equal(t, []string{"register", "accept"}, events)
}

func listEventActions(app *testApp, batchID string) ([]string, error) {
	resp, err := http.Get(app.server.URL + "/api/v1/batches/" + batchID + "/events")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Data []struct {
			Action string `json:"action"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	actions := make([]string, 0, len(body.Data))
	for _, e := range body.Data {
		actions = append(actions, e.Action)
	}
	return actions, nil
}
