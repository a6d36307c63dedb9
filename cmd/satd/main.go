package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"io"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/spektrum.go/pkg/daemon"
	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/telemetry"
)

var configFile string

func init() {
	daemon.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "YAML config file, overlaid on the flags.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := daemon.Default()
	if configFile != "" {
		if err := conf.LoadFile(configFile); err != nil {
			log.Fatalln(err)
		}
	}

	sat, err := conf.NewSatellite()
	if err != nil {
		log.Fatalln(err)
	}
	port, capture, err := conf.OpenSerial()
	if err != nil {
		log.Fatalln(err)
	}
	closers := []io.Closer{port}
	if capture != nil {
		closers = append(closers, capture)
	}
	pubs, pubClosers, err := conf.NewPublishers()
	if err != nil {
		log.Fatalln(err)
	}
	closers = append(closers, pubClosers...)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	ctl := conf.NewController(sat, port, pubs)
	seq, err := conf.NewSequencer()
	if err != nil {
		log.Fatalln(err)
	}
	if seq != nil {
		ctl.Binder = seq
	}

	loop := fx.NewLoop()
	loop.Interval = conf.Interval
	loop.Add(ctl, pubs, &telemetry.UnsupportedCommands{})

	glog.Infof("%s: receiving on %s, mode %s", conf.Name(), conf.Serial.Device, sat.BindMode())
	runner := fx.NewRunner().HandleSignals().Go(loop)
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
