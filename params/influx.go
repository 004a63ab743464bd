package params

import "os"

type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// DefaultInfluxConfig reads the INFLUXDB_* environment.
// An empty URL disables export.
func DefaultInfluxConfig() *InfluxConfig {
	return &InfluxConfig{
		URL:    os.Getenv("INFLUXDB_URL"),
		Token:  os.Getenv("INFLUXDB_TOKEN"),
		Org:    os.Getenv("INFLUXDB_ORG"),
		Bucket: os.Getenv("INFLUXDB_BUCKET"),
	}
}

func (c *InfluxConfig) Enabled() bool {
	return c != nil && c.URL != ""
}
