// interval shows or sets the time between slides.
package main

import (
	"flag"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/tstromberg/exhibition/pkg/exhibition"
)

var stateDir = flag.String("state", "", "Location of index cache and preferences")

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	c, err := exhibition.LoadConfig()
	if err != nil {
		klog.Exitf("config: %v", err)
	}
	if *stateDir != "" {
		c.StateDir = *stateDir
	}

	prefs := exhibition.OpenPrefs(c.PrefsPath())

	if flag.NArg() == 0 {
		fmt.Println(prefs.Timeout().Milliseconds())
		return
	}

	d, err := exhibition.ParseInterval(flag.Arg(0))
	if err != nil {
		klog.Exitf("%v", err)
	}
	if err := prefs.SetTimeout(d); err != nil {
		klog.Exitf("set interval: %v", err)
	}
	klog.Infof("interval set to %s, effective from the next activation", d)
}
