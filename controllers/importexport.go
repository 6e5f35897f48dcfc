package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"go-storefront/models"
	"go-storefront/utils"
)

// ImportController bulk-loads the catalog from an uploaded spreadsheet
type ImportController struct {
	ProductCollection  *mongo.Collection
	CategoryCollection *mongo.Collection
}

// NewImportController creates a new ImportController
func NewImportController(client *mongo.Client) *ImportController {
	db := client.Database("storefront")
	return &ImportController{
		ProductCollection:  db.Collection("products"),
		CategoryCollection: db.Collection("categories"),
	}
}

const maxImportSize = 10 << 20 // 10 MB

// Expected columns: name, category, price, stock, description, tags, image.
// The first row is a header. Rows missing name/category/price are skipped,
// as are rows whose slug already exists.
func (ic *ImportController) ImportProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "File too large or malformed upload")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	book, err := excelize.OpenReader(file)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Could not read spreadsheet")
		return
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Spreadsheet has no sheets")
		return
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Could not read spreadsheet rows")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	created := 0
	skipped := 0
	categoryCache := map[string]models.Category{}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		cell := func(idx int) string {
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		name := cell(0)
		categoryName := cell(1)
		price, priceErr := strconv.ParseInt(cell(2), 10, 64)
		if name == "" || categoryName == "" || priceErr != nil || price < 0 {
			skipped++
			continue
		}
		stock, err := strconv.ParseInt(cell(3), 10, 64)
		if err != nil || stock < 0 {
			stock = 0
		}

		category, err := ic.ensureCategory(ctx, categoryCache, categoryName)
		if err != nil {
			log.Printf("import: category %q: %v", categoryName, err)
			skipped++
			continue
		}

		slug := utils.Slugify(name)
		count, err := ic.ProductCollection.CountDocuments(ctx, bson.M{"slug": slug})
		if err != nil || count > 0 {
			skipped++
			continue
		}

		var tags []string
		for _, t := range strings.Split(cell(5), ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, strings.ToLower(t))
			}
		}
		var images []string
		if img := cell(6); img != "" {
			images = []string{img}
		}

		now := time.Now()
		product := models.Product{
			Name:        name,
			Slug:        slug,
			Category:    category.ID,
			Price:       price,
			Currency:    "INR",
			Images:      images,
			Description: cell(4),
			Tags:        tags,
			Stock:       stock,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := ic.ProductCollection.InsertOne(ctx, product); err != nil {
			log.Printf("import: insert %q: %v", name, err)
			skipped++
			continue
		}
		created++
	}

	utils.WriteJSON(w, http.StatusOK, map[string]int{
		"created": created,
		"skipped": skipped,
	})
}

func (ic *ImportController) ensureCategory(ctx context.Context, cache map[string]models.Category, name string) (models.Category, error) {
	slug := utils.Slugify(name)
	if c, ok := cache[slug]; ok {
		return c, nil
	}

	var category models.Category
	err := ic.CategoryCollection.FindOne(ctx, bson.M{"slug": slug}).Decode(&category)
	if err == mongo.ErrNoDocuments {
		category = models.Category{Name: name, Slug: slug, CreatedAt: time.Now()}
		result, insertErr := ic.CategoryCollection.InsertOne(ctx, category)
		if insertErr != nil {
			return models.Category{}, insertErr
		}
		category.ID = result.InsertedID.(primitive.ObjectID)
	} else if err != nil {
		return models.Category{}, err
	}

	cache[slug] = category
	return category, nil
}
