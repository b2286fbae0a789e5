// Copyright (c) 2025 GMartin-Data
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli"
)

var errProductNotFound = errors.New("product not found")

// validSizes is the fixed product size vocabulary of the catalog.
var validSizes = map[string]bool{
	"XS": true, "S": true, "M": true, "L": true,
	"38": true, "40": true, "42": true, "44": true, "46": true,
	"48": true, "50": true, "52": true, "54": true, "56": true,
	"58": true, "60": true, "62": true, "70": true,
}

// Product represents one row of the SalesLT.Product table.
type Product struct {
	ProductID              int        `json:"ProductID"`
	Name                   string     `json:"Name"`
	ProductNumber          string     `json:"ProductNumber"`
	Color                  *string    `json:"Color,omitempty"`
	StandardCost           float64    `json:"StandardCost"`
	ListPrice              float64    `json:"ListPrice"`
	Size                   *string    `json:"Size,omitempty"`
	Weight                 *float64   `json:"Weight,omitempty"`
	SellStartDate          time.Time  `json:"SellStartDate"`
	SellEndDate            *time.Time `json:"SellEndDate,omitempty"`
	DiscontinuedDate       *time.Time `json:"DiscontinuedDate,omitempty"`
	ThumbnailPhotoFileName *string    `json:"ThumbnailPhotoFileName,omitempty"`
	ProductModelID         *int       `json:"ProductModelID,omitempty"`
	ProductCategoryID      *int       `json:"ProductCategoryID,omitempty"`
	RowGUID                string     `json:"rowguid"`
	ModifiedDate           time.Time  `json:"ModifiedDate"`
}

// productUpdate describes a partial update: nil fields are left
// untouched.
type productUpdate struct {
	Name                   *string    `json:"Name,omitempty"`
	ProductNumber          *string    `json:"ProductNumber,omitempty"`
	Color                  *string    `json:"Color,omitempty"`
	StandardCost           *float64   `json:"StandardCost,omitempty"`
	ListPrice              *float64   `json:"ListPrice,omitempty"`
	Size                   *string    `json:"Size,omitempty"`
	Weight                 *float64   `json:"Weight,omitempty"`
	SellStartDate          *time.Time `json:"SellStartDate,omitempty"`
	SellEndDate            *time.Time `json:"SellEndDate,omitempty"`
	DiscontinuedDate       *time.Time `json:"DiscontinuedDate,omitempty"`
	ThumbnailPhotoFileName *string    `json:"ThumbnailPhotoFileName,omitempty"`
	ProductModelID         *int       `json:"ProductModelID,omitempty"`
	ProductCategoryID      *int       `json:"ProductCategoryID,omitempty"`
}

// validate checks the column length limits and the size vocabulary the
// catalog schema imposes.
func (p Product) validate() error {
	if p.Name == "" {
		return fmt.Errorf("Name must be set")
	}
	if len(p.Name) > 100 {
		return fmt.Errorf("Name must be 100 characters or less")
	}
	if p.ProductNumber == "" {
		return fmt.Errorf("ProductNumber must be set")
	}
	if len(p.ProductNumber) > 50 {
		return fmt.Errorf("ProductNumber must be 50 characters or less")
	}
	if p.Color != nil && len(*p.Color) > 30 {
		return fmt.Errorf("Color must be 30 characters or less")
	}
	if p.ThumbnailPhotoFileName != nil && len(*p.ThumbnailPhotoFileName) > 100 {
		return fmt.Errorf("ThumbnailPhotoFileName must be 100 characters or less")
	}
	if p.Size != nil && !validSizes[*p.Size] {
		return fmt.Errorf("invalid Size %q", *p.Size)
	}
	if p.SellStartDate.IsZero() {
		return fmt.Errorf("SellStartDate must be set")
	}

	return nil
}

// productColumns lists the scanned columns, in scan order.
const productColumns = `ProductID, Name, ProductNumber, Color, StandardCost,
	ListPrice, Size, Weight, SellStartDate, SellEndDate, DiscontinuedDate,
	ThumbnailPhotoFileName, ProductModelID, ProductCategoryID, rowguid,
	ModifiedDate`

// productStore performs product CRUD against the SalesLT schema.
type productStore struct {
	db *sql.DB
}

func newProductStore(db *sql.DB) *productStore {
	return &productStore{db: db}
}

func scanProduct(row interface{ Scan(...interface{}) error }) (Product, error) {
	var p Product

	err := row.Scan(&p.ProductID, &p.Name, &p.ProductNumber, &p.Color,
		&p.StandardCost, &p.ListPrice, &p.Size, &p.Weight,
		&p.SellStartDate, &p.SellEndDate, &p.DiscontinuedDate,
		&p.ThumbnailPhotoFileName, &p.ProductModelID,
		&p.ProductCategoryID, &p.RowGUID, &p.ModifiedDate)

	return p, err
}

// List returns products ordered by ID, with pagination.
func (s *productStore) List(offset, limit int) ([]Product, error) {
	rows, err := s.db.Query(`
		SELECT `+productColumns+`
		  FROM SalesLT.Product
		 ORDER BY ProductID
		OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
		sql.Named("offset", offset),
		sql.Named("limit", limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %v", err)
	}
	defer rows.Close()

	var products []Product

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// Get returns the product with the given ID, or errProductNotFound.
func (s *productStore) Get(id int) (Product, error) {
	row := s.db.QueryRow(`
		SELECT `+productColumns+`
		  FROM SalesLT.Product
		 WHERE ProductID = @id`,
		sql.Named("id", id))

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return Product{}, fmt.Errorf("%w: ID %d", errProductNotFound, id)
	}
	if err != nil {
		return Product{}, err
	}

	return p, nil
}

// Create inserts a new product and returns it with its generated ID,
// rowguid and modification date filled in.
func (s *productStore) Create(p Product) (Product, error) {
	if err := p.validate(); err != nil {
		return Product{}, err
	}

	p.RowGUID = uuid.NewString()
	p.ModifiedDate = time.Now().UTC()

	row := s.db.QueryRow(`
		INSERT INTO SalesLT.Product (Name, ProductNumber, Color,
			StandardCost, ListPrice, Size, Weight, SellStartDate,
			SellEndDate, DiscontinuedDate, ThumbnailPhotoFileName,
			ProductModelID, ProductCategoryID, rowguid, ModifiedDate)
		OUTPUT INSERTED.ProductID
		VALUES (@Name, @ProductNumber, @Color, @StandardCost,
			@ListPrice, @Size, @Weight, @SellStartDate, @SellEndDate,
			@DiscontinuedDate, @ThumbnailPhotoFileName,
			@ProductModelID, @ProductCategoryID, @rowguid,
			@ModifiedDate)`,
		sql.Named("Name", p.Name),
		sql.Named("ProductNumber", p.ProductNumber),
		sql.Named("Color", p.Color),
		sql.Named("StandardCost", p.StandardCost),
		sql.Named("ListPrice", p.ListPrice),
		sql.Named("Size", p.Size),
		sql.Named("Weight", p.Weight),
		sql.Named("SellStartDate", p.SellStartDate),
		sql.Named("SellEndDate", p.SellEndDate),
		sql.Named("DiscontinuedDate", p.DiscontinuedDate),
		sql.Named("ThumbnailPhotoFileName", p.ThumbnailPhotoFileName),
		sql.Named("ProductModelID", p.ProductModelID),
		sql.Named("ProductCategoryID", p.ProductCategoryID),
		sql.Named("rowguid", p.RowGUID),
		sql.Named("ModifiedDate", p.ModifiedDate))

	if err := row.Scan(&p.ProductID); err != nil {
		return Product{}, fmt.Errorf("failed to create product: %v", err)
	}

	return p, nil
}

// Update applies the set fields of the update to an existing product
// and returns the result.
func (s *productStore) Update(id int, update productUpdate) (Product, error) {
	current, err := s.Get(id)
	if err != nil {
		return Product{}, err
	}

	var assignments []string
	args := []interface{}{sql.Named("id", id)}

	set := func(column string, value interface{}) {
		assignments = append(assignments, fmt.Sprintf("%s = @%s", column, column))
		args = append(args, sql.Named(column, value))
	}

	if update.Name != nil {
		current.Name = *update.Name
		set("Name", *update.Name)
	}
	if update.ProductNumber != nil {
		current.ProductNumber = *update.ProductNumber
		set("ProductNumber", *update.ProductNumber)
	}
	if update.Color != nil {
		current.Color = update.Color
		set("Color", *update.Color)
	}
	if update.StandardCost != nil {
		current.StandardCost = *update.StandardCost
		set("StandardCost", *update.StandardCost)
	}
	if update.ListPrice != nil {
		current.ListPrice = *update.ListPrice
		set("ListPrice", *update.ListPrice)
	}
	if update.Size != nil {
		current.Size = update.Size
		set("Size", *update.Size)
	}
	if update.Weight != nil {
		current.Weight = update.Weight
		set("Weight", *update.Weight)
	}
	if update.SellStartDate != nil {
		current.SellStartDate = *update.SellStartDate
		set("SellStartDate", *update.SellStartDate)
	}
	if update.SellEndDate != nil {
		current.SellEndDate = update.SellEndDate
		set("SellEndDate", *update.SellEndDate)
	}
	if update.DiscontinuedDate != nil {
		current.DiscontinuedDate = update.DiscontinuedDate
		set("DiscontinuedDate", *update.DiscontinuedDate)
	}
	if update.ThumbnailPhotoFileName != nil {
		current.ThumbnailPhotoFileName = update.ThumbnailPhotoFileName
		set("ThumbnailPhotoFileName", *update.ThumbnailPhotoFileName)
	}
	if update.ProductModelID != nil {
		current.ProductModelID = update.ProductModelID
		set("ProductModelID", *update.ProductModelID)
	}
	if update.ProductCategoryID != nil {
		current.ProductCategoryID = update.ProductCategoryID
		set("ProductCategoryID", *update.ProductCategoryID)
	}

	if len(assignments) == 0 {
		return current, nil
	}

	if err := current.validate(); err != nil {
		return Product{}, err
	}

	current.ModifiedDate = time.Now().UTC()
	set("ModifiedDate", current.ModifiedDate)

	query := fmt.Sprintf(`
		UPDATE SalesLT.Product
		   SET %s
		 WHERE ProductID = @id`, strings.Join(assignments, ", "))

	if _, err := s.db.Exec(query, args...); err != nil {
		return Product{}, fmt.Errorf("failed to update product: %v", err)
	}

	return current, nil
}

// Delete removes the product with the given ID, or returns
// errProductNotFound.
func (s *productStore) Delete(id int) error {
	result, err := s.db.Exec(`
		DELETE FROM SalesLT.Product
		 WHERE ProductID = @id`,
		sql.Named("id", id))
	if err != nil {
		return fmt.Errorf("failed to delete product: %v", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return fmt.Errorf("%w: ID %d", errProductNotFound, id)
	}

	return nil
}

// readProductDocument decodes a JSON document from the named file, or
// stdin when the name is "-".
func readProductDocument(path string, v interface{}) error {
	var reader io.Reader = os.Stdin

	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		reader = f
	}

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	return decoder.Decode(v)
}

func printProducts(products ...Product) error {
	encoder := json.NewEncoder(defaultOutputFile)
	encoder.SetIndent("", "  ")

	for _, p := range products {
		if err := encoder.Encode(p); err != nil {
			return err
		}
	}

	return nil
}

func productIDArg(context *cli.Context) (int, error) {
	if context.NArg() != 1 {
		return 0, fmt.Errorf("need product ID")
	}

	id, err := strconv.Atoi(context.Args().First())
	if err != nil {
		return 0, fmt.Errorf("invalid product ID %q", context.Args().First())
	}

	return id, nil
}

func productStoreFromEnv() (*productStore, error) {
	db, err := getDB()
	if err != nil {
		return nil, err
	}

	return newProductStore(db), nil
}

var productCommand = cli.Command{
	Name:  "product",
	Usage: "product catalog administration",
	Subcommands: []cli.Command{
		{
			Name:  "list",
			Usage: "lists products with pagination",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "offset",
					Usage: "number of records to skip",
				},
				cli.IntFlag{
					Name:  "limit",
					Value: 100,
					Usage: "maximum number of records to return",
				},
			},
			Action: func(context *cli.Context) error {
				store, err := productStoreFromEnv()
				if err != nil {
					return err
				}

				products, err := store.List(context.Int("offset"), context.Int("limit"))
				if err != nil {
					return err
				}

				return printProducts(products...)
			},
		},
		{
			Name:      "show",
			Usage:     "shows one product",
			ArgsUsage: "<id>",
			Action: func(context *cli.Context) error {
				id, err := productIDArg(context)
				if err != nil {
					return err
				}

				store, err := productStoreFromEnv()
				if err != nil {
					return err
				}

				product, err := store.Get(id)
				if err != nil {
					return err
				}

				return printProducts(product)
			},
		},
		{
			Name:  "create",
			Usage: "creates a product from a JSON document",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "file",
					Value: "-",
					Usage: "JSON document path ('-' for stdin)",
				},
			},
			Action: func(context *cli.Context) error {
				var product Product
				if err := readProductDocument(context.String("file"), &product); err != nil {
					return err
				}

				store, err := productStoreFromEnv()
				if err != nil {
					return err
				}

				created, err := store.Create(product)
				if err != nil {
					return err
				}

				return printProducts(created)
			},
		},
		{
			Name:      "update",
			Usage:     "applies a partial JSON update to a product",
			ArgsUsage: "<id>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "file",
					Value: "-",
					Usage: "JSON document path ('-' for stdin)",
				},
			},
			Action: func(context *cli.Context) error {
				id, err := productIDArg(context)
				if err != nil {
					return err
				}

				var update productUpdate
				if err := readProductDocument(context.String("file"), &update); err != nil {
					return err
				}

				store, err := productStoreFromEnv()
				if err != nil {
					return err
				}

				updated, err := store.Update(id, update)
				if err != nil {
					return err
				}

				return printProducts(updated)
			},
		},
		{
			Name:      "delete",
			Usage:     "deletes a product",
			ArgsUsage: "<id>",
			Action: func(context *cli.Context) error {
				id, err := productIDArg(context)
				if err != nil {
					return err
				}

				store, err := productStoreFromEnv()
				if err != nil {
					return err
				}

				return store.Delete(id)
			},
		},
	},
}
