package product

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
)

const (
	CategoryTactical  = "Équipement Tactique"
	CategoryNutrition = "Nutrition & Suppléments"
	CategoryCombat    = "Équipement Sport & Combat"
)

type seedProduct struct {
	name        string
	description string
	price       string
	category    string
	image       string
}

var starterCatalog = []seedProduct{
	{"Gilet Tactique Multi-Poches", "Gilet tactique MOLLE, 12 poches modulables, nylon 1000D résistant à l'eau.", "89.99", CategoryTactical, "https://images.unsplash.com/photo-1585076800984-66ba9b56e6f4?w=500"},
	{"Casque Tactique Protection", "Coque ABS haute densité, suspension interne ajustable, rails latéraux.", "149.99", CategoryTactical, "https://images.unsplash.com/photo-1589578527966-fdac0f44566c?w=500"},
	{"Pantalon Cargo Tactique", "Tissu ripstop renforcé, 8 poches, genoux renforcés.", "69.99", CategoryTactical, "https://images.unsplash.com/photo-1624378439575-d8705ad7ae80?w=500"},
	{"Whey Protéine Isolat 2kg", "Isolat de lactosérum, 27g de protéines par dose, faible en lactose.", "59.99", CategoryNutrition, "https://images.unsplash.com/photo-1593095948071-474c5cc2989d?w=500"},
	{"Créatine Monohydrate 500g", "Créatine micronisée pure, sans additif.", "24.99", CategoryNutrition, "https://images.unsplash.com/photo-1579722820308-d74e571900a9?w=500"},
	{"BCAA 2:1:1 Récupération", "Acides aminés ramifiés pour la récupération musculaire.", "29.99", CategoryNutrition, "https://images.unsplash.com/photo-1546483875-ad9014c88eba?w=500"},
	{"Gants de Boxe Cuir 14oz", "Cuir pleine fleur, rembourrage multicouche, fermeture velcro.", "79.99", CategoryCombat, "https://images.unsplash.com/photo-1583473848882-f9a5bc7fd2ee?w=500"},
	{"Kettlebell Fonte 16kg", "Fonte d'une seule pièce, poignée large texturée.", "49.99", CategoryCombat, "https://images.unsplash.com/photo-1517963879433-6ad2b056d712?w=500"},
	{"Corde à Sauter Speed", "Câble acier gainé, roulements à billes, longueur réglable.", "19.99", CategoryCombat, "https://images.unsplash.com/photo-1434682881908-b43d0467b798?w=500"},
}

// SeedStarterCatalog inserts the starter catalog into an empty products table.
// It reports how many rows were written; a non-empty table is left untouched.
func SeedStarterCatalog(ctx context.Context, conn *gorm.DB, stock int) (int, error) {
	repo := NewRepository(conn)
	existing, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	rows := make([]models.Product, 0, len(starterCatalog))
	for _, p := range starterCatalog {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			return 0, fmt.Errorf("seed price for %s: %w", p.name, err)
		}
		rows = append(rows, models.Product{
			Name:          p.name,
			Description:   p.description,
			Price:         price,
			Category:      p.category,
			Image:         p.image,
			StockQuantity: stock,
		})
	}
	if err := conn.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("insert starter catalog: %w", err)
	}
	return len(rows), nil
}
