package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"lifo/api/grpcserver"
	"lifo/domain/stack"
	"lifo/infra/kafka"
	"lifo/infra/memory"
	"lifo/infra/metrics"
	"lifo/infra/sequence"
	entrywal "lifo/infra/wal/entry"
	exitwal "lifo/infra/wal/exit"
	"lifo/jobs/broadcaster"
	"lifo/jobs/reclaimer"
	"lifo/service"
	"lifo/snapshot"
)

var (
	addr        = flag.String("addr", ":50051", "gRPC listen address")
	metricsAddr = flag.String("metrics-addr", ":9090", "Prometheus listen address (empty disables)")
	walDir      = flag.String("wal-dir", "./wal_entry", "push/pop journal directory")
	outboxDir   = flag.String("outbox-dir", "./wal_exit", "pop outbox directory")
	snapDir     = flag.String("snapshot-dir", "./snapshot", "checkpoint directory (empty disables checkpoints)")
	brokers     = flag.String("kafka-brokers", "", "comma separated Kafka brokers (empty disables the broadcaster)")
	topic       = flag.String("kafka-topic", "lifo.pops", "topic popped items are announced on")
	kafkaClient = flag.String("kafka-client", "kafka-go", "Kafka client: kafka-go or sarama")
	eventFormat = flag.String("event-format", "json", "pop event encoding: json or proto")
	reclaimIvl  = flag.Duration("reclaim-interval", 2*time.Second, "how often idle retire bags are drained")
	bagSize     = flag.Uint64("retire-bag-size", 64, "per-participant retire bag capacity (power of two)")
)

const banner = `
 _ _  __
| (_)/ _| ___
| | | |_ / _ \
| | |  _| (_) |
|_|_|_|  \___/
`

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	if err := memory.ValidateRetireBagSize(*bagSize); err != nil {
		log.Fatalf("invalid -retire-bag-size: %v", err)
	}

	fmt.Println(color.CyanString(banner))

	// ---------------- Journal ----------------

	journal, err := entrywal.Open(entrywal.Config{
		Dir:             *walDir,
		SegmentSize:     2 * 1024 * 1024,
		SegmentDuration: time.Minute,
	})
	if err != nil {
		log.Fatalf("journal init failed: %v", err)
	}

	// ---------------- Outbox ----------------

	outbox, err := exitwal.Open(*outboxDir)
	if err != nil {
		log.Fatalf("outbox init failed: %v", err)
	}

	// ---------------- Domain ----------------

	st := stack.NewWithConfig[service.Item](stack.Config{RetireBagSize: *bagSize})
	seqGen := sequence.New(0)

	// ---------------- Metrics ----------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var svc *service.StackService
	m := metrics.New(reg, func() metrics.Snapshot { return svc.MetricsSnapshot() })

	// ---------------- Service ----------------

	svc = service.NewStackService(st, seqGen, service.Config{
		Journal: journal,
		Outbox:  outbox,
		Metrics: m,
	})

	// ---------------- Recovery ----------------

	var snapWriter *snapshot.Writer
	if *snapDir != "" {
		snapWriter = &snapshot.Writer{Dir: *snapDir}
		err = service.Recover(*walDir, snapWriter.Path(), svc)
	} else {
		err = service.ReplayFromWAL(*walDir, svc)
	}
	if err != nil {
		log.Fatalf("recovery failed: %v", err)
	}

	// ---------------- Background jobs ----------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var jobs sync.WaitGroup
	jobs.Add(1)
	go func() {
		defer jobs.Done()
		reclaimer.New(svc, *reclaimIvl).Run(ctx)
	}()

	var bc *broadcaster.Broadcaster
	if *brokers != "" {
		pub, err := newPublisher(strings.Split(*brokers, ","))
		if err != nil {
			log.Fatalf("kafka init failed: %v", err)
		}
		enc, err := broadcaster.EncoderFor(*eventFormat)
		if err != nil {
			log.Fatalf("broadcaster init failed: %v", err)
		}
		bc = broadcaster.New(outbox, pub, broadcaster.Config{PruneAcked: true, Encoder: enc})
		jobs.Add(1)
		go func() {
			defer jobs.Done()
			bc.Run(ctx)
		}()
	} else {
		log.Println("[broadcaster] disabled: no -kafka-brokers")
	}

	// ---------------- Metrics endpoint ----------------

	var metricsSrv *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsSrv = &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[metrics] server exited: %v", err)
			}
		}()
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("listen failed: %v", err)
	}

	grpcSrv := grpc.NewServer()
	grpcserver.RegisterStackServiceServer(grpcSrv, grpcserver.NewServer(svc))

	go func() {
		<-ctx.Done()
		log.Println("[gRPC] shutting down")
		grpcSrv.GracefulStop()
	}()

	color.Green("lifo stack running on %s (%d items restored)", *addr, svc.Len())

	if err := grpcSrv.Serve(lis); err != nil {
		log.Printf("gRPC server exited: %v", err)
	}

	// ---------------- Shutdown ----------------

	stop()
	jobs.Wait()

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsSrv.Shutdown(shutdownCtx)
		cancel()
	}
	if bc != nil {
		if err := bc.Close(); err != nil {
			log.Printf("[broadcaster] close: %v", err)
		}
	}

	if snapWriter != nil {
		snap, err := svc.Checkpoint(snapWriter)
		if err != nil {
			log.Printf("[service] checkpoint: %v", err)
		} else {
			log.Printf("[service] checkpoint: %d items at segment %d", len(snap.Items), snap.Segment)
		}
	}

	left, err := svc.Close()
	if err != nil {
		log.Printf("[service] close: %v", err)
	}
	if err := journal.Close(); err != nil {
		log.Printf("journal close: %v", err)
	}
	if err := outbox.Close(); err != nil {
		log.Printf("outbox close: %v", err)
	}
	color.Yellow("stopped, %d items left in the journal", left)
}

func newPublisher(brokerList []string) (kafka.Publisher, error) {
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}
	switch *kafkaClient {
	case "kafka-go":
		return kafka.NewProducer(brokerList, *topic), nil
	case "sarama":
		return kafka.NewSaramaProducer(brokerList, *topic)
	default:
		return nil, errors.Newf("unknown -kafka-client %q", *kafkaClient)
	}
}
