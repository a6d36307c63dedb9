package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/joystick"
	"github.com/robotalks/spektrum.go/pkg/serialport"
	"github.com/robotalks/spektrum.go/pkg/spektrum"
	"github.com/robotalks/spektrum.go/pkg/telemetry"
	"github.com/robotalks/spektrum.go/pkg/telemetry/mqtt"
)

var (
	bindMode = spektrum.DefaultBindMode.String()
	interval = 22 * time.Millisecond
	mqttURL  string
	name     = "satjoy"
)

func init() {
	if val := os.Getenv("SAT_MQTT_URL"); val != "" {
		mqttURL = val
	}
	serialport.SetupFlags()
	joystick.SetupFlags()
	flag.StringVar(&bindMode, "bind-mode", bindMode, "Bind mode selecting the frame layout.")
	flag.DurationVar(&interval, "interval", interval, "Frame interval.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL for joystick status.")
	flag.StringVar(&name, "name", name, "Name used in MQTT topics.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	mode, err := spektrum.ParseBindMode(bindMode)
	if err != nil {
		log.Fatalln(err)
	}
	sat := spektrum.New[float64]()
	if err := sat.SetBindMode(mode); err != nil {
		log.Fatalln(err)
	}
	if err := sat.SetChannelValueRange(-1, 1); err != nil {
		log.Fatalln(err)
	}

	serialConf := serialport.Default()
	port, err := serialConf.Open()
	if err != nil {
		log.Fatalln(err)
	}
	defer port.Close()

	ctl := joystick.Default().NewController(sat, port)
	ctl.PortName = serialConf.Device
	loop := fx.NewLoop()
	loop.Interval = interval
	if mqttURL != "" {
		pub, err := mqtt.NewPublisher(mqttURL, name, mqtt.Meta{
			Description: "joystick transmitter",
			BindMode:    mode.String(),
		})
		if err != nil {
			log.Fatalln(err)
		}
		ctl.Publisher = pub
		loop.Add(pub, &telemetry.UnsupportedCommands{})
	}
	loop.Add(ctl)

	runner := fx.NewRunner().HandleSignals().Go(loop)
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
