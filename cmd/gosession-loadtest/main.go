package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/broadcast"
	"github.com/MrEthical07/goSession/verifier"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		configPath  = flag.String("config", "", "optional YAML config file; GOSESSION_* env vars apply on top")
		sessions    = flag.Int("sessions", 50000, "number of primary sessions to seed")
		accounts    = flag.Int("accounts", 1000, "number of accounts the sessions are spread over")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		limit       = flag.Int("limit", 0, "per-endpoint session limit passed to Save (0 = unlimited)")
		withEvents  = flag.Bool("broadcast", false, "publish events over Redis and feed an offline verifier denylist")
		redisAddr   = flag.String("redis-addr", "", "redis address for -broadcast; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *accounts <= 0 || *concurrency <= 0 || *ops <= 0 || *limit < 0 {
		fmt.Fprintln(os.Stderr, "sessions, accounts, concurrency and ops must be > 0; limit must be >= 0")
		os.Exit(2)
	}

	cfg, err := goSession.LoadConfig(*configPath, goSession.DefaultEnvPrefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := goSession.NewLogger(cfg.Logging)
	for _, w := range cfg.Lint() {
		logger.Info("config lint", "code", w.Code, "message", w.Message)
	}

	builder := goSession.New().WithConfig(cfg).WithLogger(logger)

	var sub *broadcast.Subscriber
	if *withEvents {
		client, cleanup := redisClient(*redisAddr)
		defer cleanup()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sub = broadcast.NewSubscriber(client, verifier.NewDenylist(0), broadcast.SubscriberConfig{Logger: logger})
		go func() {
			if err := sub.Run(ctx); err != nil {
				logger.Error("subscriber stopped", "error", err)
			}
		}()
		<-sub.Ready()
		builder = builder.WithEventSink(broadcast.NewPublisher(client, broadcast.PublisherConfig{Logger: logger}))
	}

	engine, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx := context.Background()
	tokens := make([]string, *sessions)

	fmt.Printf("seeding %d sessions over %d accounts...\n", *sessions, *accounts)
	seed := runPhase(*sessions, *concurrency, func(_ *rand.Rand, i int) error {
		tok, err := engine.Save(ctx, goSession.Claims{
			TenantCode: "load",
			AccountID:  fmt.Sprintf("acct-%d", i%*accounts),
			Endpoint:   "web",
		}, *limit)
		tokens[i] = tok
		return err
	})

	verify := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		if !engine.Verify(ctx, tokens[r.Intn(len(tokens))]) {
			return errRejected
		}
		return nil
	})

	chained := make([]string, *ops)
	login := runPhase(*ops, *concurrency, func(r *rand.Rand, i int) error {
		tok, err := engine.LoginByToken(ctx, tokens[r.Intn(len(tokens))], "app", nil, 0)
		chained[i] = tok
		return err
	})

	invalidate := runPhase(*ops, *concurrency, func(_ *rand.Rand, i int) error {
		if chained[i] == "" {
			return errRejected
		}
		return engine.Invalidate(ctx, chained[i])
	})

	fmt.Println("---- results ----")
	printStats("save", seed)
	printStats("verify", verify)
	printStats("login-by-token", login)
	printStats("invalidate", invalidate)

	snap := engine.MetricsSnapshot()
	fmt.Printf("sessions=%d created=%d evicted=%d cascaded=%d events_dropped=%d\n",
		engine.SessionCount(),
		snap.Counters[goSession.MetricSessionCreated],
		snap.Counters[goSession.MetricSessionEvicted],
		snap.Counters[goSession.MetricSessionCascaded],
		engine.EventsDropped(),
	)

	if sub != nil {
		// Let in-flight events drain before reporting.
		engine.Close()
		time.Sleep(500 * time.Millisecond)
		fmt.Printf("broadcast: applied=%d skipped=%d\n", sub.Applied(), sub.Skipped())
	}
}

var errRejected = errors.New("rejected")

func redisClient(addr string) (redis.UniversalClient, func()) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }
	}

	mr, err := miniredis.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
		os.Exit(1)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}
}

// runPhase calls op ops times from concurrency workers and records per-call latency.
func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, ops)
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				latencies[i] = time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	switch {
	case len(sorted) == 0:
		return 0
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	return sorted[(len(sorted)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%-15s ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
