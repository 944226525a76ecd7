package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"palmwatch/internal/config"
	"palmwatch/internal/db"
	"palmwatch/internal/discovery"
	"palmwatch/internal/engine"
	"palmwatch/internal/mqtt"
	"palmwatch/internal/redis"
	"palmwatch/internal/scheduler"
	"palmwatch/internal/taskqueue"
	"palmwatch/internal/telemetry"
	"palmwatch/internal/utils"
	"palmwatch/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLogging(cfg.LogLevel)

	var opts []telemetry.Option
	if cfg.Simulation.Seed != 0 {
		log.Printf("Seeding simulation with %d", cfg.Simulation.Seed)
		opts = append(opts, telemetry.WithRand(rand.New(rand.NewSource(cfg.Simulation.Seed))))
	}
	store := telemetry.NewStore(opts...)

	var sinks engine.Sinks

	var publisher *mqtt.Publisher
	var commands *mqtt.CommandListener
	if cfg.MQTT.Broker != "" {
		mqttClient, err := mqtt.NewMQTTClient(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			log.Fatalf("Failed to connect to MQTT: %v", err)
		}
		defer mqttClient.Disconnect(250)

		publisher = mqtt.NewPublisher(mqttClient, cfg.MQTT.TopicPrefix)
		sinks.Publisher = publisher

		commands = mqtt.NewCommandListener(mqttClient, cfg.MQTT.TopicPrefix, store)
	} else {
		log.Println("MQTT is disabled")
	}

	var queue *taskqueue.Queue
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewRedisClient(cfg.Redis.Addr)
		defer redisClient.Close()
		sinks.Mirror = redis.NewMirror(redisClient, cfg.Redis.Prefix, cfg.Redis.SnapshotTTL)

		var notifier taskqueue.Notifier
		if publisher != nil {
			notifier = publisher
		}
		queue = taskqueue.NewQueue(cfg.Redis.Addr, notifier)
		if err := queue.Start(); err != nil {
			log.Fatalf("Failed to start task queue: %v", err)
		}
		sinks.Queue = queue
	} else {
		log.Println("Redis mirror and task queue are disabled")
	}

	if cfg.Database.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		dbConn, err := db.NewDB(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		if err := dbConn.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate DB: %v", err)
		}
		cancel()
		defer dbConn.Close()
		sinks.Archive = dbConn
	} else {
		log.Println("Reading archive is disabled")
	}

	sched := scheduler.NewScheduler()
	sched.Start()

	eng := engine.NewEngine(store, sched, cfg.Simulation.TickSpec, sinks)
	if err := eng.Start(); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	// commands mutate the store, so they start once the engine is subscribed
	if commands != nil {
		if err := commands.Start(); err != nil {
			log.Fatalf("Failed to subscribe to MQTT commands: %v", err)
		}
	}

	webServer := web.NewWebServer(store)
	go func() {
		if err := webServer.Start(fmt.Sprintf(":%d", cfg.App.Port)); err != nil {
			log.Fatalf("Web server failed: %v", err)
		}
	}()

	var advertiser *discovery.Advertiser
	if cfg.MDNS.LocalName != "" {
		advertiser, err = discovery.NewAdvertiser(cfg.MDNS.LocalName)
		if err != nil {
			log.Printf("Failed to start mDNS advertiser: %v", err)
		}
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	sched.Stop()
	eng.Stop()
	if queue != nil {
		queue.Stop()
	}
	if commands != nil {
		commands.Stop()
	}
	if advertiser != nil {
		advertiser.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := webServer.Shutdown(ctx); err != nil {
		log.Printf("Web server shutdown: %v", err)
	}
	log.Println("Shutdown complete")
}
