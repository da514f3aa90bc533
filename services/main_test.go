package services

import (
	"context"
	"os"
	"testing"

	"github.com/kendall-kelly/personalization-api/i18n"
	"github.com/kendall-kelly/personalization-api/logger"
	"github.com/kendall-kelly/personalization-api/models"
	"github.com/kendall-kelly/personalization-api/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	if err := i18n.Load(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// serviceSuite wires every domain service to a fresh in-memory database per test
type serviceSuite struct {
	suite.Suite
	ctx             context.Context
	db              *gorm.DB
	catalog         *CatalogService
	personalization *PersonalizationService
	cart            *CartService
	users           *UserService
	translate       models.Translator
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	log := logger.Nop()
	s.catalog = NewCatalogService(s.db, log, "USD")
	s.personalization = NewPersonalizationService(s.db, log, "USD")
	s.cart = NewCartService(s.db, log, "USD")
	s.users = NewUserService(s.db, log)
	s.translate = models.Translator(i18n.Translator("en"))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func flatRate(amount string) *CalculatorAttributes {
	return &CalculatorAttributes{Type: models.CalculatorFlatRate, PreferredAmount: ptr(dec(amount))}
}

func (s *serviceSuite) createProduct(name, price string) *models.Product {
	product := &models.Product{Name: name, Price: dec(price)}
	require.NoError(s.T(), s.catalog.CreateProduct(s.ctx, product))
	return product
}

func (s *serviceSuite) createOptionValue(name string) *models.OptionValue {
	optionValue := &models.OptionValue{Name: name, Presentation: name}
	require.NoError(s.T(), s.catalog.CreateOptionValue(s.ctx, optionValue))
	return optionValue
}

func (s *serviceSuite) createCustomer(auth0ID string) *models.User {
	user := &models.User{Auth0ID: auth0ID, Name: auth0ID, Email: auth0ID + "@example.com", Role: models.RoleCustomer}
	require.NoError(s.T(), s.db.Create(user).Error)
	return user
}

// textUpsert describes a new text definition
func textUpsert(name string, limit int, amount string, required bool) PersonalizationUpsert {
	return PersonalizationUpsert{
		Name:       ptr(name),
		Kind:       ptr(models.KindText),
		Required:   ptr(required),
		Limit:      ptr(limit),
		Calculator: flatRate(amount),
	}
}

// listUpsert describes a new list definition whose choices are priced in order
func listUpsert(name string, required bool, choices map[uint]string, order ...uint) PersonalizationUpsert {
	up := PersonalizationUpsert{
		Name:       ptr(name),
		Kind:       ptr(models.KindList),
		Required:   ptr(required),
		Limit:      ptr(models.LabelLimit),
		Calculator: flatRate("0"),
	}
	for _, id := range order {
		up.OptionUpserts = append(up.OptionUpserts, OptionChoiceUpsert{
			OptionValueID: id,
			Calculator:    flatRate(choices[id]),
		})
	}
	return up
}

func (s *serviceSuite) savePersonalizations(productID uint, upserts ...PersonalizationUpsert) []models.ProductPersonalization {
	defs, err := s.personalization.Save(s.ctx, productID, PersonalizationBatch{Upserts: upserts}, s.translate)
	require.NoError(s.T(), err)
	return defs
}

func ptr[T any](v T) *T {
	return &v
}
