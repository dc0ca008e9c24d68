package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
)

var (
	errResponseStatus     = fmt.Errorf("response status not ok")
	errNegativePrediction = fmt.Errorf("negative length of stay prediction")
	errEmptyURL           = fmt.Errorf("empty predictor url")
)

// LoSPredictor estimates a length of stay in days from a reshaped vector
type LoSPredictor interface {
	Predict(ctx context.Context, input []float64) (float64, error)
}

type predictor struct {
	url    string
	client *http.Client
}

type requestBody struct {
	Input []float64 `json:"input"`
}

type jsonResponse struct {
	PredictedLoS *float64 `json:"PREDICTED_LOS"`
}

func (p predictor) Predict(ctx context.Context, input []float64) (float64, error) {
	if p.url == "" {
		return 0, errEmptyURL
	}

	body, err := json.Marshal(requestBody{Input: input})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if nil != err {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %d", errResponseStatus, resp.StatusCode)
	}

	d, err := ioutil.ReadAll(resp.Body)
	if nil != err {
		return 0, err
	}

	var r jsonResponse
	if err := json.Unmarshal(d, &r); nil != err {
		return 0, err
	}

	if r.PredictedLoS == nil {
		return 0, fmt.Errorf("%w: no PREDICTED_LOS in response", errResponseStatus)
	}
	if *r.PredictedLoS < 0 {
		return 0, errNegativePrediction
	}

	return *r.PredictedLoS, nil
}

// New returns a client of the point predictor service. A nil client uses
// http.DefaultClient.
func New(url string, client *http.Client) LoSPredictor {
	if client == nil {
		client = http.DefaultClient
	}

	return &predictor{
		url:    url,
		client: client,
	}
}
