package location

import (
	"fmt"
	"log"
	"time"
)

const (
	antennaSettle = 100 * time.Millisecond
	replyTimeout  = 1 * time.Second
)

// run is the worker goroutine: it owns all modem interaction for the
// lifetime of the service and handles one command at a time.
func (s *Service) run() {
	defer s.wg.Done()
	for req := range s.commands {
		switch req.cmd {
		case cmdAcquire:
			s.attempt(req)
		case cmdExit:
			return
		}
	}
}

// attempt runs one acquisition end-to-end and delivers its outcome either
// over the request's response channel (blocking caller) or through the
// callback. The single-flight slot is held until after delivery, so a new
// request admitted by the coordinator can never queue behind a completing
// attempt or observe its outcome.
func (s *Service) attempt(req request) {
	defer s.acquiring.Store(false)

	out := s.acquireInto(req.point)

	if req.resp != nil {
		req.resp <- out
		return
	}
	if req.done != nil {
		if req.publish && out == OutcomeFixed {
			s.publishPoint(req.point)
		}
		req.done(out)
	}
}

// acquireInto drives the modem through one attempt: antenna on, GNSS
// session start, poll/evaluate loop, GNSS session end, antenna off on
// every exit path.
func (s *Service) acquireInto(point *Point) Outcome {
	defer func() {
		if err := s.ant.Set(false); err != nil {
			log.Printf("location: antenna power off failed: %v", err)
		}
	}()

	if err := s.ant.Set(true); err != nil {
		log.Printf("location: antenna power on failed: %v", err)
	}
	s.clock.Sleep(antennaSettle)

	log.Printf("location: started acquisition")
	if _, err := s.modem.Command("AT+QGPS=1"); err != nil {
		log.Printf("location: gnss start: %v", err)
	}
	if s.currentModel() == ModelBG95M5 {
		if _, err := s.modem.Command(`AT+QGPSCFG="nmea_epe",1`); err != nil {
			log.Printf("location: enable accuracy reporting: %v", err)
		}
		s.configureConstellation()
	}

	ev := newEvaluator(s.clock, s.cfg)
	out := OutcomeTimedOut
	powered := true
	for {
		if powered = s.modem.IsPowered(); !powered {
			break
		}
		if ev.expired() {
			break
		}

		reply, err := s.modem.CommandTimeout("AT+QGPSLOC=2", replyTimeout)
		fault := FaultNone
		if err == nil {
			fault = parseFixReply(reply, point)
		}
		ev.observe(fault, point)

		// Accuracy is merged after the position sample so settled() gates
		// on same-cycle values.
		if s.currentModel() == ModelBG95M5 {
			if reply, err := s.modem.CommandTimeout(`AT+QGPSCFG="estimation_error"`, replyTimeout); err == nil {
				parseAccuracyReply(reply, point)
			}
		}

		if ev.settled(fault, point) {
			out = OutcomeFixed
			break
		}
		s.clock.Sleep(s.cfg.PollInterval)
	}

	if _, err := s.modem.Command("AT+QGPSEND"); err != nil {
		log.Printf("location: gnss stop: %v", err)
	}

	if !powered && out != OutcomeFixed {
		out = OutcomeUnavailable
	}
	ev.finish(point)
	log.Printf("location: acquisition finished: %s", out)
	return out
}

// configureConstellation applies the configured constellation bitmap to
// the modem.
func (s *Service) configureConstellation() {
	cmd := fmt.Sprintf(`AT+QGPSCFG="gnssconfig",%d`, gnssConfigNumber(s.cfg.Constellation))
	if _, err := s.modem.Command(cmd); err != nil {
		log.Printf("location: constellation config: %v", err)
	}
}

// publishPoint builds and publishes the loc event. The request sequence
// number advances only on a successful publish.
func (s *Service) publishPoint(p *Point) {
	if s.pub == nil || !s.pub.IsConnected() {
		return
	}
	payload, err := buildPayload(p, s.seq.Load())
	if err != nil {
		log.Printf("location: publish payload: %v", err)
		return
	}
	log.Printf("location: publishing loc event")
	if s.pub.Publish("loc", payload) {
		s.seq.Add(1)
	}
}
