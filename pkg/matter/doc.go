// Package matter hosts Matter server clusters on a single event loop.
//
// A Node owns the endpoint tree, the attribute storage handed to clusters
// at startup, and a broker that fans attribute reports out to subscribers.
// Every timer callback and every data model operation runs on the node's
// event loop, one at a time.
//
// # Creating a Device
//
//	node, err := matter.NewNode(matter.NodeConfig{
//	    Storage: store,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	level, err := levelcontrol.New(levelcontrol.Config{
//	    EndpointID: 1,
//	    Timer:      node.Timer(),
//	    // ...
//	})
//
//	light := matter.NewEndpoint(1).
//	    WithDeviceType(datamodel.DeviceTypeDimmableLight, 3).
//	    AddCluster(onOff).
//	    AddCluster(level)
//	if err := node.AddEndpoint(light); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := node.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Stop()
//
// # Reports
//
// Subscribe returns a channel of AttributeReport values:
//
//	reports := node.Subscribe(32)
//	for msg := range reports {
//	    report := msg.(matter.AttributeReport)
//	    data, _ := node.ReadAttribute(ctx, report.Path)
//	    // ...
//	}
//
// See the examples/ directory for a complete dimmable light.
package matter
