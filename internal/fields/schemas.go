package fields

import "yamo/treasury/internal/models"

// Accounts describes models.Account.
var Accounts = NewSchema(models.ResourceAccounts,
	ID("id", func(a models.Account) models.ID { return a.ID }),
	Text("code", func(a models.Account) models.Text { return a.Code }),
	Text("libelle", func(a models.Account) models.Text { return a.Libelle }),
	Text("type", func(a models.Account) models.Text { return a.Type }),
	Text("banque", func(a models.Account) models.Text { return a.Banque }),
	Text("numero_compte", func(a models.Account) models.Text { return a.NumeroCompte }),
	Text("devise", func(a models.Account) models.Text { return a.Devise }),
	Amount("solde", func(a models.Account) models.Amount { return a.Solde }),
	Text("statut", func(a models.Account) models.Text { return a.Statut }),
)

// ThirdParties describes models.ThirdParty.
var ThirdParties = NewSchema(models.ResourceThirdParties,
	ID("id", func(p models.ThirdParty) models.ID { return p.ID }),
	Text("code", func(p models.ThirdParty) models.Text { return p.Code }),
	Text("raison_sociale", func(p models.ThirdParty) models.Text { return p.RaisonSociale }),
	Text("type", func(p models.ThirdParty) models.Text { return p.Type }),
	Text("email", func(p models.ThirdParty) models.Text { return p.Email }),
	Text("telephone", func(p models.ThirdParty) models.Text { return p.Telephone }),
	Text("ville", func(p models.ThirdParty) models.Text { return p.Ville }),
	Amount("solde", func(p models.ThirdParty) models.Amount { return p.Solde }),
	Text("statut", func(p models.ThirdParty) models.Text { return p.Statut }),
)

// Transactions describes models.Transaction.
var Transactions = NewSchema(models.ResourceTransactions,
	ID("id", func(t models.Transaction) models.ID { return t.ID }),
	Text("reference", func(t models.Transaction) models.Text { return t.Reference }),
	Date("date_operation", func(t models.Transaction) models.Date { return t.Date }),
	Text("libelle", func(t models.Transaction) models.Text { return t.Libelle }),
	Text("type", func(t models.Transaction) models.Text { return t.Type }),
	Amount("montant", func(t models.Transaction) models.Amount { return t.Montant }),
	ID("compte_id", func(t models.Transaction) models.ID { return t.CompteID }),
	Text("compte_libelle", func(t models.Transaction) models.Text { return t.CompteLibelle }),
	ID("categorie_id", func(t models.Transaction) models.ID { return t.CategorieID }),
	Text("categorie_nom", func(t models.Transaction) models.Text { return t.CategorieNom }),
	ID("tiers_id", func(t models.Transaction) models.ID { return t.TiersID }),
	Text("tiers_nom", func(t models.Transaction) models.Text { return t.TiersNom }),
	Text("mode_paiement", func(t models.Transaction) models.Text { return t.ModePaiement }),
	Text("statut", func(t models.Transaction) models.Text { return t.Statut }),
)

// Categories describes models.Category.
var Categories = NewSchema(models.ResourceCategories,
	ID("id", func(c models.Category) models.ID { return c.ID }),
	Text("code", func(c models.Category) models.Text { return c.Code }),
	Text("nom", func(c models.Category) models.Text { return c.Nom }),
	Text("type", func(c models.Category) models.Text { return c.Type }),
	Text("description", func(c models.Category) models.Text { return c.Description }),
	Text("couleur", func(c models.Category) models.Text { return c.Couleur }),
)

// Describe returns the schema of a resource.
func Describe(r models.Resource) (Descriptor, bool) {
	switch r {
	case models.ResourceAccounts:
		return Accounts, true
	case models.ResourceThirdParties:
		return ThirdParties, true
	case models.ResourceTransactions:
		return Transactions, true
	case models.ResourceCategories:
		return Categories, true
	}
	return nil, false
}
