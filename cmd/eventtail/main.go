// Command eventtail prints storefront events from kafka as JSON lines.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/lumina_shop/pkg/config"
	"github.com/Skotchmaster/lumina_shop/pkg/events"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
)

func main() {
	var (
		brokers = flag.String("brokers", config.EnvDefault("KAFKA_BROKERS", "localhost:9092"), "comma separated broker list")
		topics  = flag.String("topics", strings.Join([]string{events.TopicCart, events.TopicOrder, events.TopicReview, events.TopicContact}, ","), "topics to follow")
		group   = flag.String("group", "eventtail", "consumer group id")
	)
	flag.Parse()

	log := logging.New(config.EnvDefault("LOG_LEVEL", "info")).With("service", "eventtail")

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(sigCtx)
	for _, topic := range config.CSV(*topics) {
		g.Go(func() error {
			return events.Consume(ctx, config.CSV(*brokers), topic, *group, func(_ context.Context, m kafka.Message) error {
				fmt.Fprintf(os.Stdout, "{\"topic\":%q,\"key\":%q,\"event\":%s}\n", m.Topic, m.Key, m.Value)
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil && sigCtx.Err() == nil {
		log.Error("consume_error", "error", err)
		os.Exit(1)
	}
	log.Info("eventtail stopped")
}
