// trainval-sandbox serves an in-memory platform API for trying trainval locally.
//
// Usage:
//
//	trainval-sandbox --fixture ./fixture.yaml --token s3cr3t --addr :8080
//
// Then, point a profile to http://localhost:8080/public/api/v3 .
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/opst/trainval/pkg/buildtime"
	"github.com/opst/trainval/pkg/sandbox"
	"github.com/opst/trainval/pkg/utils/echoutil"
	"github.com/opst/trainval/pkg/utils/filewatch"
)

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture yaml. when empty, the sandbox starts with no projects.")
	token := flag.String("token", "", "api token which clients should send. when empty, any request is accepted.")
	addr := flag.String("addr", ":8080", "address to listen")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	log.Printf("trainval-sandbox %s", buildtime.VersionString())

	store := sandbox.NewStore()
	if *fixturePath != "" {
		f, err := sandbox.LoadFixture(*fixturePath)
		if err != nil {
			log.Fatalf("can not read fixture: %s", err)
		}
		if err := store.Seed(f); err != nil {
			log.Fatalf("can not seed fixture: %s", err)
		}
	}

	e := sandbox.New(store, *token)
	e.HideBanner = true
	echoutil.SetLevel(e, *loglevel)

	if *fixturePath != "" {
		ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), *fixturePath)
		if err != nil {
			log.Fatalf("can not watch fixture: %s", err)
		}
		defer cancel()
		context.AfterFunc(ctx, func() {
			log.Println("fixture file is updated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by fixture update: %s", err)
			}
		})
	}

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	var err error
	if cert, key := *pcert, *pkey; cert != "" && key != "" {
		err = e.StartTLS(*addr, cert, key)
	} else {
		err = e.Start(*addr)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.Logger.Fatal(err)
	}
}
