package feed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ozscope/airspace-stats/types"
)

// Client fetches the network's snapshot feeds: the main data file with
// pilots and controllers, and the transceivers file with per-station radio
// positions and frequencies.
type Client struct {
	dataURL         string
	transceiversURL string
	http            *http.Client
}

func NewClient(dataURL, transceiversURL string) *Client {
	return &Client{
		dataURL:         dataURL,
		transceiversURL: transceiversURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchData fetches and decodes the main snapshot.
func (c *Client) FetchData() (*types.VatsimData, error) {
	var data types.VatsimData
	if err := c.getJSON(c.dataURL, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// FetchTransceivers fetches the transceivers feed, keyed by callsign.
func (c *Client) FetchTransceivers() (map[string]types.TransceiverSet, error) {
	var sets []types.TransceiverSet
	if err := c.getJSON(c.transceiversURL, &sets); err != nil {
		return nil, err
	}
	byCallsign := make(map[string]types.TransceiverSet, len(sets))
	for _, set := range sets {
		byCallsign[set.Callsign] = set
	}
	return byCallsign, nil
}

func (c *Client) getJSON(url string, v interface{}) error {
	resp, err := c.http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
