package repository

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// DefaultCities is the city directory seeded on first start.
var DefaultCities = []string{
	"Adana", "Adıyaman", "Afyonkarahisar", "Ağrı", "Amasya",
	"Ankara", "Antalya", "Artvin", "Aydın", "Balıkesir",
	"Bilecik", "Bingöl", "Bitlis", "Bolu", "Burdur",
	"Bursa", "Çanakkale", "Çankırı", "Çorum", "Denizli",
	"Diyarbakır", "Edirne", "Elazığ", "Erzincan", "Erzurum",
	"Eskişehir", "Gaziantep", "Giresun", "Gümüşhane", "Hakkâri",
	"Hatay", "Isparta", "Mersin", "İstanbul", "İzmir",
	"Kars", "Kastamonu", "Kayseri", "Kırklareli", "Kırşehir",
	"Kocaeli", "Konya", "Kütahya", "Malatya", "Manisa",
	"Kahramanmaraş", "Mardin", "Muğla", "Muş", "Nevşehir",
	"Niğde", "Ordu", "Rize", "Sakarya", "Samsun",
	"Siirt", "Sinop", "Sivas", "Tekirdağ", "Tokat",
	"Trabzon", "Tunceli", "Şanlıurfa", "Uşak", "Van",
	"Yozgat", "Zonguldak", "Aksaray", "Bayburt", "Karaman",
	"Kırıkkale", "Batman", "Şırnak", "Bartın", "Ardahan",
	"Iğdır", "Yalova", "Karabük", "Kilis", "Osmaniye",
	"Düzce",
}

// Migrate creates the schema if needed and seeds the city directory.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	tag, err := db.Exec(ctx, `INSERT INTO cities (name) SELECT unnest($1::text[]) ON CONFLICT (name) DO NOTHING`, DefaultCities)
	if err != nil {
		return fmt.Errorf("seed cities: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		slog.Info("seeded cities", "count", n)
	}
	return nil
}
