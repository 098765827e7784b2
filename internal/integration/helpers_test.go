//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("aftershock-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// writeCatalog writes a small CSV catalog around Tehran and returns its path.
// A 6.2 mainshock at origin is followed by a decaying aftershock sequence.
func writeCatalog(t *testing.T, origin time.Time) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,time,mag,depth,lon,lat,place,type\n")
	fmt.Fprintf(&b, "ms,%s,6.2,10,51.39,35.69,Tehran,earthquake\n", origin.Format(time.RFC3339))
	for i := range 40 {
		at := origin.Add(time.Duration(1+i*i) * time.Hour)
		mag := 4.5 + float64(i%7)*0.2
		fmt.Fprintf(&b, "as%d,%s,%.1f,10,%.2f,%.2f,,earthquake\n", i, at.Format(time.RFC3339), mag, 51.3+float64(i%5)*0.05, 35.6+float64(i%3)*0.05)
	}
	b.WriteString("broken,,5.0,10,51.0,35.0,,earthquake\n")

	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}
