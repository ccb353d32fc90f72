// phdmanager runs a sample 11073-20601 manager: it accepts agent
// connections over TCP, accepts their configurations and logs every
// observation.
package main

import (
	"net"
	"os"

	"github.com/giesekow/go-phd"
	"github.com/giesekow/go-phd/apdu"
	"github.com/giesekow/go-phd/dim"
	"github.com/grailbio/go-dicom/dicomlog"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

var opts struct {
	Listen  string `long:"listen" default:":6024" description:"Address to listen on"`
	Verbose int    `short:"v" long:"verbose" default:"0" description:"Protocol log verbosity"`
}

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	dicomlog.SetLevel(opts.Verbose)

	listener, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		logrus.WithError(err).Fatal("failed to listen")
	}
	logrus.WithField("addr", listener.Addr()).Info("listening")

	catalog := dim.NewConfigCatalog()
	for {
		conn, err := listener.Accept()
		if err != nil {
			logrus.WithError(err).Error("accept failed")
			continue
		}
		log := logrus.WithField("peer", conn.RemoteAddr())
		log.Info("agent connected")
		phd.NewManager(conn, phd.ManagerParams{
			SystemID: []byte{0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11},
			Catalog:  catalog,
			OnObservation: func(personID uint16, handle apdu.Handle, attrs apdu.AttributeList, raw []byte) {
				log.WithFields(logrus.Fields{
					"handle": handle,
					"attrs":  attrs.String(),
					"raw":    raw,
				}).Info("observation")
			},
			OnStateChange: func(was, now phd.State) {
				log.WithFields(logrus.Fields{"was": was, "now": now}).Info("state change")
			},
		})
	}
}
