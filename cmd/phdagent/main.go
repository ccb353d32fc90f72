// phdagent runs a sample 11073-20601 agent: it associates with a manager
// over TCP, negotiates its configuration and sends a scan report.
package main

import (
	"net"
	"os"
	"time"

	"github.com/giesekow/go-phd"
	"github.com/giesekow/go-phd/apdu"
	"github.com/giesekow/go-phd/dim"
	"github.com/grailbio/go-dicom/dicomlog"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

var opts struct {
	Server    string `long:"server" default:"localhost:6024" description:"Manager address to connect to"`
	ConfigID  uint16 `long:"config-id" default:"400" description:"Dev-config-id to report (400 = pulse oximeter)"`
	Verbose   int    `short:"v" long:"verbose" default:"0" description:"Protocol log verbosity"`
	ReleaseIn string `long:"release-after" default:"2s" description:"Release the association after this duration"`
}

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	dicomlog.SetLevel(opts.Verbose)

	releaseAfter, err := time.ParseDuration(opts.ReleaseIn)
	if err != nil {
		logrus.WithError(err).Fatal("bad --release-after")
	}

	conn, err := net.Dial("tcp", opts.Server)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect")
	}

	states := make(chan phd.State, 16)
	agent := phd.NewAgent(conn, phd.AgentParams{
		SystemID:    []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88},
		DevConfigID: opts.ConfigID,
		OnStateChange: func(was, now phd.State) {
			logrus.WithFields(logrus.Fields{"was": was, "now": now}).Info("state change")
			states <- now
		},
	})
	agent.Associate()

	timeout := time.After(30 * time.Second)
	for {
		select {
		case s := <-states:
			switch s {
			case phd.StateConfigSending:
				agent.SendConfig()
			case phd.StateOperating:
				info, err := apdu.EncodeScanReportInfoFixed(&apdu.ScanReportInfoFixed{
					DataReqID:    apdu.DataReqIDAgentInitiated,
					ScanReportNo: 1,
					ObsScanFixed: []apdu.ObservationScanFixed{
						{ObjHandle: 1, ObsValData: []byte{0x00, 0x62}}, // SpO2 98
					},
				})
				if err != nil {
					logrus.WithError(err).Fatal("failed to encode scan report")
				}
				agent.SendEvent(dim.MDSHandle, dim.MdcNotiScanReportFixed, info)
				logrus.Info("sent measurement, releasing soon")
				go func() {
					time.Sleep(releaseAfter)
					agent.Release()
				}()
			case phd.StateUnassociated:
				logrus.Info("unassociated, done")
				return
			}
		case <-agent.Done():
			logrus.Info("connection closed")
			return
		case <-timeout:
			logrus.Fatal("timed out")
		}
	}
}
