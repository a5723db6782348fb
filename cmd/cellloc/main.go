package main

import (
	"flag"
	"log"
	"os"

	"cellloc/internal/antenna"
	"cellloc/internal/config"
	"cellloc/internal/location"
	"cellloc/internal/modem"
	"cellloc/internal/publish"
)

func main() {
	var configPath string
	var publishFix bool
	flag.StringVar(&configPath, "config", "./cellloc.yaml", "Path to YAML config")
	flag.BoolVar(&publishFix, "publish", false, "Publish the fix after acquisition")
	flag.Parse()

	os.Exit(run(configPath, publishFix))
}

// run carries the exit code back to main so the deferred closes (serial
// port, GPIO line, MQTT disconnect) run on every path.
func run(configPath string, publishFix bool) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("config load failed: %v", err)
		return 1
	}

	transport, err := modem.Open(modem.Config{Device: cfg.Modem.Device, Baud: cfg.Modem.Baud})
	if err != nil {
		log.Printf("modem open failed: %v", err)
		return 1
	}
	defer transport.Close()

	var ant location.Antenna = antenna.Nop{}
	if cfg.Location.AntennaPin > 0 {
		p, err := antenna.Open(cfg.Location.AntennaPin)
		if err != nil {
			log.Printf("antenna init failed: %v", err)
			return 1
		}
		defer p.Close()
		ant = p
	}

	var pub location.Publisher
	if cfg.MQTT.Enable {
		client, err := publish.Connect(publish.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		})
		if err != nil {
			log.Printf("mqtt connect failed: %v", err)
			return 1
		}
		defer client.Close()
		pub = client
	}

	// Validated during Load.
	flags, _ := cfg.Location.ConstellationFlags()

	svc := location.New(location.Config{
		Constellation:     flags,
		HDOPThreshold:     cfg.Location.HDOPThreshold,
		AccuracyThreshold: cfg.Location.AccuracyM,
		MaxFixTime:        cfg.Location.MaxFixTime,
		PollInterval:      cfg.Location.PollInterval,
	}, location.Deps{
		Modem:     transport,
		Detector:  transport,
		Antenna:   ant,
		Publisher: pub,
	})
	defer svc.Close()

	log.Printf("cellloc starting device=%s max_fix_time=%s", cfg.Modem.Device, cfg.Location.MaxFixTime)

	var point location.Point
	out := svc.Acquire(&point, publishFix)
	if out != location.OutcomeFixed {
		log.Printf("acquisition failed: %s", out)
		return 1
	}
	log.Printf("fix: lat=%.8f lon=%.8f alt=%.3fm spd=%.2fm/s hd=%.2f hdop=%.1f nsat=%d ttff=%.1fs",
		point.Latitude, point.Longitude, point.Altitude, point.Speed,
		point.Heading, point.HorizontalDop, point.SatsInUse, point.TimeToFirstFix)
	return 0
}
