// Command buildquery generates the typed query package for the patrol models.
package main

import (
	"context"
	"flag"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gen"
	"gorm.io/gorm"

	"guardpatrol.com/patrol/core"
	"guardpatrol.com/patrol/patrol/model"
)

func main() {
	out := flag.String("out", "./patrol/query", "output directory")
	flag.Parse()

	cfg, err := core.LoadConfig(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	dsn, err := cfg.ResolveDSN(context.Background())
	if err != nil {
		log.Fatalf("resolve dsn: %v", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath: *out,
		Mode:    gen.WithDefaultQuery | gen.WithQueryInterface,
	})

	db, err := gorm.Open(mysql.Open(dsn))
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	g.UseDB(db)

	g.ApplyBasic(model.All()...)

	g.Execute()
}
