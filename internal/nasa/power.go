package nasa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// powerParameters are the NASA POWER daily-point readings requested for the
// agricultural community.
const powerParameters = "T2M,T2M_MIN,T2M_MAX,PRECTOTCORR,RH2M,ALLSKY_SFC_SW_DWN,WS2M"

// fetchPower calls the NASA POWER daily-point API and reduces the window to
// latest-day temperatures plus cumulative precipitation.
func (s *Service) fetchPower(ctx context.Context, lat, lon float64) (Envelope, error) {
	end := s.now()
	start := end.AddDate(0, 0, -s.cfg.LookbackDays)

	endpoint := strings.TrimRight(s.cfg.PowerBaseURL, "/") + "/api/temporal/daily/point"
	q := url.Values{}
	q.Set("parameters", powerParameters)
	q.Set("community", "AG")
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("start", start.Format("20060102"))
	q.Set("end", end.Format("20060102"))
	q.Set("format", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Envelope{}, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Envelope{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Envelope{}, fmt.Errorf("power status %d: %s", resp.StatusCode, string(body))
	}

	var wrapper struct {
		Properties struct {
			Parameter map[string]map[string]float64 `json:"parameter"`
		} `json:"properties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return Envelope{}, err
	}
	return s.reducePower(wrapper.Properties.Parameter)
}

func (s *Service) reducePower(params map[string]map[string]float64) (Envelope, error) {
	tempAvg := params["T2M"]
	if len(tempAvg) == 0 {
		return Envelope{}, errors.New("power payload missing T2M series")
	}

	days := make([]string, 0, len(tempAvg))
	for day := range tempAvg {
		days = append(days, day)
	}
	sort.Strings(days)

	// -999 is the POWER fill value for days not yet processed.
	pick := func(series map[string]float64) float64 {
		for i := len(days) - 1; i >= 0; i-- {
			if v, ok := series[days[i]]; ok && v > -900 {
				return v
			}
		}
		return 0
	}

	var precipTotal float64
	for _, v := range params["PRECTOTCORR"] {
		if v > -900 {
			precipTotal += v
		}
	}

	return Envelope{
		Dataset: DatasetClimate,
		Success: true,
		Source:  SourceNASAPower,
		Metrics: map[string]float64{
			MetricTempAvg:     pick(params["T2M"]),
			MetricTempMin:     pick(params["T2M_MIN"]),
			MetricTempMax:     pick(params["T2M_MAX"]),
			MetricPrecipTotal: round2(precipTotal),
			MetricHumidity:    pick(params["RH2M"]),
			MetricSolar:       pick(params["ALLSKY_SFC_SW_DWN"]),
			MetricWind:        pick(params["WS2M"]),
			MetricWindowDays:  float64(s.cfg.LookbackDays),
		},
	}, nil
}
