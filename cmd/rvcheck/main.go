package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rvlab/rvcheck/pkg/api"
	"github.com/rvlab/rvcheck/pkg/fetc"
	"github.com/rvlab/rvcheck/pkg/meter"
	"github.com/rvlab/rvcheck/pkg/report"
	"github.com/rvlab/rvcheck/pkg/session"
	"github.com/sirupsen/logrus"
)

type config struct {
	configPath string
	model      string
	port       string
	baud       int
	sim        bool
	listPorts  bool
	testRead   bool
	export     bool
	apiAddr    string
	debug      bool
}

var log = logrus.New()

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {

	// Parse command line options
	var cfg config

	flag.StringVar(&cfg.configPath, "config", "", "path to yaml configuration file")
	flag.StringVar(&cfg.model, "model", "", "model name for the report header")
	flag.StringVar(&cfg.port, "port", "", "serial port of the instrument (overrides config)")
	flag.IntVar(&cfg.baud, "baud", 0, "serial baud rate (overrides config)")
	flag.BoolVar(&cfg.sim, "sim", false, "run on simulated readings only")
	flag.BoolVar(&cfg.listPorts, "ports", false, "list available serial ports and exit")
	flag.BoolVar(&cfg.testRead, "test", false, "perform a single test read and exit")
	flag.BoolVar(&cfg.export, "export", true, "write a report when the run completes")
	flag.StringVar(&cfg.apiAddr, "api", "", "serve the session REST API on this address instead of running")
	flag.BoolVar(&cfg.debug, "debug", false, "enable debug logging")
	flag.Parse()

	if cfg.debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if cfg.listPorts {
		ports, err := fetc.ListPorts()
		if err != nil {
			return fmt.Errorf("failed to enumerate serial ports: %s", err)
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return nil
	}

	sessCfg := session.Default()
	if cfg.configPath != "" {
		loaded, err := session.Load(cfg.configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %s", err)
		}
		sessCfg = loaded
	}
	if cfg.model != "" {
		sessCfg.Model = cfg.model
	}
	if cfg.port != "" {
		sessCfg.Serial.Port = cfg.port
	}
	if cfg.baud != 0 {
		sessCfg.Serial.BaudRate = cfg.baud
	}
	if err := session.Validate(&sessCfg); err != nil {
		return fmt.Errorf("invalid configuration: %s", err)
	}
	session.Normalize(&sessCfg)

	libLog := meter.NewDefaultLogger(cfg.debug)

	writer := report.Writer{
		Dir:    sessCfg.Export.Dir,
		Format: report.Format(sessCfg.Export.Format),
	}

	options := []func(*session.Controller){
		session.WithExporter(writer),
		session.WithLogger(libLog),
	}

	if !cfg.sim && sessCfg.Serial.Port != "" {
		dev := fetc.New(
			fetc.WithPortName(sessCfg.Serial.Port),
			fetc.WithBaudRate(sessCfg.Serial.BaudRate),
			fetc.WithLineEnding(lineEnding(sessCfg.Serial.LineEnding)),
			fetc.WithTimeout(time.Duration(sessCfg.Serial.TimeoutMs)*time.Millisecond),
			fetc.WithUnit(sessCfg.Unit()),
			fetc.WithLogger(libLog),
		)
		if err := dev.Open(); err != nil {
			return fmt.Errorf("failed to connect instrument: %s", err)
		}
		defer func() {
			if cerr := dev.Close(); cerr != nil {
				log.Warnf("failed to close instrument connection: %s", cerr)
			}
		}()
		options = append(options, session.WithInstrument(dev))
		log.Infof("instrument connected on %s @ %d bps", sessCfg.Serial.Port, sessCfg.Serial.BaudRate)
	} else {
		log.Info("no instrument configured, using simulated readings")
	}

	controller, err := session.New(sessCfg, options...)
	if err != nil {
		return fmt.Errorf("failed to initialize session: %s", err)
	}

	if cfg.testRead {
		reading, err := controller.TestRead()
		if err != nil {
			return fmt.Errorf("test read failed: %s", err)
		}
		log.Infof("test read: R=%.2f %s, V=%.4f V", reading.Resistance, reading.Unit, reading.Voltage)
		return nil
	}

	controller.SetResultHandler(func(res session.PointResult) {
		verdict := "NOT PASS"
		if res.Verdict.Pass {
			verdict = "PASS"
		}
		log.Infof("cell %d: R=%.2f %s, V=%.4f V -> %s",
			res.Index+1, res.Reading.Resistance, res.Reading.Unit, res.Reading.Voltage, verdict)
	})

	notifications := make(chan session.Notification, 16)
	controller.SetNotificationChannel(notifications)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		log.Info("got signal, stopping measurement")
		controller.StopAuto()
		os.Exit(0)
	}()

	if cfg.apiAddr != "" {
		api.New(controller, writer, cfg.apiAddr)
		log.Infof("serving session API on %s", cfg.apiAddr)
		select {}
	}

	if err := controller.StartAuto(); err != nil {
		return fmt.Errorf("auto run failed: %s", err)
	}

	for n := range notifications {
		switch n.Kind {
		case session.NotifyExported:
			log.Infof("report written to %s", n.Message)
		case session.NotifyHalted:
			return fmt.Errorf("%s: %s", n.Message, n.Err)
		case session.NotifyAutoDone:
			log.Infof("%s (elapsed %s)", n.Message, controller.Elapsed().Round(time.Millisecond))
			if cfg.export && !sessCfg.Export.Auto {
				path, err := writer.ExportAuto(controller.Snapshot())
				if err != nil {
					return fmt.Errorf("export failed: %s", err)
				}
				log.Infof("report written to %s", path)
			}
			return nil
		}
	}

	return nil
}

func lineEnding(s string) fetc.LineEnding {
	if s == "lf" {
		return fetc.LineEndingLF
	}
	return fetc.LineEndingCRLF
}
