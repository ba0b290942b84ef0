//go:build integration

// Package stack runs the whole server against real Redis and Redpanda.
package stack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"trustlessid/internal/app"
	"trustlessid/internal/audit"
	"trustlessid/internal/fixtures"
	"trustlessid/internal/platform/config"
	"trustlessid/internal/platform/logger"
	"trustlessid/internal/stubclient"
	"trustlessid/internal/workflow"
	workflowhandler "trustlessid/internal/workflow/handler"
	"trustlessid/pkg/testutil/containers"
)

const topic = "trustlessid.activity.it"

func TestEnrollmentWithRedisAndKafka(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	broker := containers.NewRedpandaContainer(t).Broker

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := app.New(ctx, config.Server{
		Addr:          "127.0.0.1:0",
		JWTSigningKey: "stack-test-key",
		TokenTTL:      time.Hour,
		SeedFixtures:  true,
		Redis:         config.RedisConfig{URL: rc.URL},
		RateLimit:     config.RateLimitConfig{VerifyPerWindow: 3, Window: time.Minute},
		Stubs:         config.StubConfig{Seed: 3, CredentialValidity: config.CredentialValidity},
		Kafka:         config.KafkaConfig{Brokers: []string{broker}, Topic: topic},
	}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })

	runCtx, stopRun := context.WithCancel(ctx)
	runDone := make(chan error, 1)
	go func() { runDone <- a.Run(runCtx) }()

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	client := stubclient.New(srv.URL)
	_, err = client.Login(ctx, fixtures.DemoEmail, "pw")
	require.NoError(t, err)

	session, err := client.StartSession(ctx)
	require.NoError(t, err)
	session, err = client.SubmitDetails(ctx, session.ID, workflowhandler.DetailsRequest{FullName: "Demo User", Email: fixtures.DemoEmail})
	require.NoError(t, err)
	session, err = client.SubmitDocument(ctx, session.ID, workflowhandler.DocumentRequest{DocumentType: "passport", FileName: "p.pdf", FileSize: 1024})
	require.NoError(t, err)
	require.Equal(t, workflow.StageComplete, session.Stage)
	require.NotNil(t, session.Credential)

	t.Run("verify budget is kept in redis", func(t *testing.T) {
		for range 3 {
			_, err := client.Verify(ctx, session.Credential.ID.String())
			require.NoError(t, err)
		}
		res, err := http.Get(srv.URL + "/verify?id=" + session.Credential.ID.String())
		require.NoError(t, err)
		_ = res.Body.Close()
		assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
		assert.Empty(t, res.Header.Get("X-RateLimit-Status"))

		keys, err := rc.Client.Keys(ctx, "ratelimit:verify:ip:*").Result()
		require.NoError(t, err)
		assert.NotEmpty(t, keys)
	})

	t.Run("activity reaches kafka", func(t *testing.T) {
		consumer, err := kgo.NewClient(
			kgo.SeedBrokers(broker),
			kgo.ConsumeTopics(topic),
			kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		)
		require.NoError(t, err)
		defer consumer.Close()

		seen := map[audit.Action]bool{}
		deadline := time.Now().Add(30 * time.Second)
		for !seen[audit.ActionCredentialIssued] && time.Now().Before(deadline) {
			pollCtx, cancelPoll := context.WithTimeout(ctx, 2*time.Second)
			fetches := consumer.PollFetches(pollCtx)
			cancelPoll()
			fetches.EachRecord(func(r *kgo.Record) {
				var e audit.Event
				if json.Unmarshal(r.Value, &e) == nil {
					seen[e.Action] = true
				}
			})
		}
		assert.True(t, seen[audit.ActionLogin])
		assert.True(t, seen[audit.ActionCredentialIssued])
	})

	stopRun()
	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not stop")
	}
}
