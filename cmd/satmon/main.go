package main

import (
	"flag"
	"log"
	"os"
	"reflect"
	"strings"

	fx "github.com/robotalks/spektrum.go/pkg/framework"
	"github.com/robotalks/spektrum.go/pkg/msgs"
	"github.com/robotalks/spektrum.go/pkg/telemetry/mqtt"
	"github.com/robotalks/spektrum.go/pkg/telemetry/stream"

	_ "github.com/robotalks/spektrum.go/pkg/joystick/msgs"
)

var (
	mqttURL    = "mqtt://localhost:1883/"
	replayFile string
)

func init() {
	if val := os.Getenv("SAT_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&replayFile, "replay", replayFile, "Print a recording instead of subscribing.")
}

func printMsg(source string, typed *msgs.Typed, msg fx.Message) {
	log.Printf("%s: [%s] %s", source,
		reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
		msg.(msgs.SerializableMessage).Serializable().String())
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	if replayFile != "" {
		err := stream.ReplayFile(replayFile, func(typed *msgs.Typed, msg fx.Message) error {
			printMsg(replayFile, typed, msg)
			return nil
		})
		if err != nil {
			log.Fatalln(err)
		}
		return
	}

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, mqtt.TopicMeta) {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		printMsg(topic, typed, msg)
	}))
	<-(chan struct{})(nil)
}
