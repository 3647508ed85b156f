// Command seed books the demo schedule into the MySQL store.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	_ "time/tzdata"

	"github.com/iliyamo/room-reservation/internal/config"
	"github.com/iliyamo/room-reservation/internal/database"
	"github.com/iliyamo/room-reservation/internal/lock"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/schedule"
	"github.com/iliyamo/room-reservation/internal/seed"
	"github.com/iliyamo/room-reservation/internal/service"
	"github.com/iliyamo/room-reservation/internal/utils"
)

func main() {
	date := flag.String("date", seed.DemoDate, "civil date to seed (YYYY-MM-DD)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if cfg.StoreDriver != "mysql" {
		logger.Fatal("seed needs STORE_DRIVER=mysql", zap.String("driver", cfg.StoreDriver))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sched := config.LoadScheduleConfig()
	loc, err := sched.Location()
	if err != nil {
		logger.Fatal("schedule", zap.Error(err))
	}
	grid := schedule.NewGrid(loc, sched.GridMinutes, time.Now)
	policy, err := schedule.NewPolicy(grid, sched.Open, sched.Close)
	if err != nil {
		logger.Fatal("schedule", zap.Error(err))
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, loc)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	wanted, err := config.LoadRooms(cfg.RoomsFile)
	if err != nil {
		logger.Fatal("rooms", zap.Error(err))
	}
	rooms, err := repository.NewRoomRepo(db).Sync(ctx, wanted)
	if err != nil {
		logger.Fatal("rooms", zap.Error(err))
	}

	ledger := service.NewLedger(repository.NewReservationRepo(db, loc), service.NewRoomCatalog(rooms),
		policy, lock.NewKeyedMutex(), service.Options{Logger: logger})
	res, err := seed.Run(ctx, ledger, *date, seed.Demo, logger)
	if err != nil {
		logger.Fatal("seed", zap.Error(err))
	}
	logger.Info("seed complete", zap.String("date", *date),
		zap.Int("removed", res.Removed), zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
}
