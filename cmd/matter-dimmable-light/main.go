// matter-dimmable-light is a Matter Dimmable Light device example.
//
// The light hosts On/Off and Level Control on endpoint 1, persists its
// level across restarts and can be driven over MQTT.
//
// Usage:
//
//	matter-dimmable-light [options]
//
// Options:
//
//	-config     YAML configuration file (default: built-in defaults)
//	-storage    Path for persistent storage (.db or .json, empty = in-memory)
//	-log-level  error|warn|info|debug|trace|disabled
//	-name       Device name, also the MQTT topic segment
//	-broker     MQTT broker URL (enables the MQTT bridge)
//
// Example:
//
//	matter-dimmable-light -storage dimmer.db -broker tcp://localhost:1883 -name hallway
//	mosquitto_pub -t matter/hallway/set -m '{"brightness":128,"transition":2}'
package main

import (
	"log"

	"github.com/backkem/matter-dimmer/examples/common"
	"github.com/backkem/matter-dimmer/examples/dimmer"
)

func main() {
	// Parse command-line flags
	opts := common.ParseFlags()

	cfg, err := opts.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	lf, err := common.NewLoggerFactory(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	node, storage, err := common.CreateNode(cfg, lf)
	if err != nil {
		log.Fatalf("Failed to create node: %v", err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			log.Printf("Close storage: %v", err)
		}
	}()

	// Create the dimmable light device
	device, err := dimmer.NewDevice(node, cfg, lf)
	if err != nil {
		_ = node.Stop()
		log.Fatalf("Failed to create dimmable light: %v", err)
	}

	var services []common.Service
	if cfg.MQTT.Enabled {
		services = append(services, dimmer.NewBridge(device, dimmer.BridgeConfig{
			Broker:        cfg.MQTT.Broker,
			ClientID:      cfg.MQTT.ClientID,
			Username:      cfg.MQTT.Username,
			Password:      cfg.MQTT.Password,
			TopicPrefix:   cfg.MQTT.TopicPrefix,
			Name:          cfg.Device.Name,
			LoggerFactory: lf,
		}))
	}

	// Run the device (blocks until interrupted)
	if err := common.RunDevice(node, services...); err != nil {
		log.Printf("Device error: %v", err)
	}
}
