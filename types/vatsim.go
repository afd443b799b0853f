package types

import "time"

type VatsimData struct {
	General     General      `json:"general"`
	Pilots      []Pilot      `json:"pilots"`
	Controllers []Controller `json:"controllers"`
}

type General struct {
	Version          int       `json:"version"`
	Update           string    `json:"update"`
	UpdateTimestamp  time.Time `json:"update_timestamp"`
	ConnectedClients int       `json:"connected_clients"`
	UniqueUsers      int       `json:"unique_users"`
}

type Pilot struct {
	CID         int       `json:"cid"`
	Name        string    `json:"name"`
	Callsign    string    `json:"callsign"`
	Server      string    `json:"server"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Altitude    int       `json:"altitude"`
	Groundspeed int       `json:"groundspeed"`
	Transponder string    `json:"transponder"`
	Heading     int       `json:"heading"`
	LogonTime   time.Time `json:"logon_time"`
	LastUpdated time.Time `json:"last_updated"`
}

type Controller struct {
	CID         int       `json:"cid"`
	Name        string    `json:"name"`
	Callsign    string    `json:"callsign"`
	Frequency   string    `json:"frequency"`
	Facility    int       `json:"facility"`
	Rating      int       `json:"rating"`
	Server      string    `json:"server"`
	VisualRange int       `json:"visual_range"`
	TextAtis    []string  `json:"text_atis"`
	LastUpdated time.Time `json:"last_updated"`
	LogonTime   time.Time `json:"logon_time"`
}

// TransceiverSet is one station's radios from the transceivers feed. The
// feed is keyed by callsign and is the only source of ATC positions.
type TransceiverSet struct {
	Callsign     string        `json:"callsign"`
	Transceivers []Transceiver `json:"transceivers"`
}

type Transceiver struct {
	ID           int     `json:"id"`
	Frequency    int64   `json:"frequency"` // Hz
	LatDeg       float64 `json:"latDeg"`
	LonDeg       float64 `json:"lonDeg"`
	HeightMSLMtr float64 `json:"heightMslM"`
	HeightAGLMtr float64 `json:"heightAglM"`
}
