package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/internal/resolve"
)

func TestDSN(t *testing.T) {
	t.Parallel()

	params := resolve.ConnectionParameters{
		Host:     "db.example.com",
		Port:     "5432",
		Database: "disaster_recovery",
		User:     "orcauser",
		Password: "s3cret",
	}

	tests := []struct {
		name   string
		params resolve.ConnectionParameters
		opts   Options
		want   string
	}{
		{
			name:   "defaults to sslmode require",
			params: params,
			want:   "host=db.example.com port=5432 dbname=disaster_recovery user=orcauser password=s3cret sslmode=require",
		},
		{
			name:   "timeout and application name",
			params: params,
			opts:   Options{SSLMode: "disable", ConnectTimeout: 10 * time.Second, ApplicationName: "drdb"},
			want:   "host=db.example.com port=5432 dbname=disaster_recovery user=orcauser password=s3cret sslmode=disable connect_timeout=10 application_name=drdb",
		},
		{
			name:   "sub-second timeout rounds up",
			params: params,
			opts:   Options{ConnectTimeout: 500 * time.Millisecond},
			want:   "host=db.example.com port=5432 dbname=disaster_recovery user=orcauser password=s3cret sslmode=require connect_timeout=1",
		},
		{
			name: "quotes special characters",
			params: resolve.ConnectionParameters{
				Host:     "db.example.com",
				Port:     "5432",
				Database: "my db",
				User:     "orcauser",
				Password: `it's a \ pass=word`,
			},
			want: `host=db.example.com port=5432 dbname='my db' user=orcauser password='it\'s a \\ pass=word' sslmode=require`,
		},
		{
			name: "quotes empty values",
			params: resolve.ConnectionParameters{
				Host:     "localhost",
				Port:     "5432",
				Database: "postgres",
				User:     "postgres",
			},
			want: "host=localhost port=5432 dbname=postgres user=postgres password='' sslmode=require",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DSN(tt.params, tt.opts))
		})
	}
}

func TestOptionsFromSettings(t *testing.T) {
	t.Parallel()

	got := OptionsFromSettings(config.Default().Database)
	assert.Equal(t, Options{
		SSLMode:         "require",
		ConnectTimeout:  10 * time.Second,
		ApplicationName: "drdb",
		Retry:           DefaultRetryPolicy(),
	}, got)
}
