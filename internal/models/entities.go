// Package models defines the entities mirrored from the YAMO backend and the snapshot the
// data cache holds them in. JSON field names follow the backend.
package models

// Account is a cash register ("caisse") or a bank account ("banque").
type Account struct {
	ID           ID     `json:"id" csv:"id"`
	Code         Text   `json:"code" csv:"code"`
	Libelle      Text   `json:"libelle" csv:"libelle"`
	Type         Text   `json:"type" csv:"type"`
	Banque       Text   `json:"banque" csv:"banque"`
	NumeroCompte Text   `json:"numero_compte" csv:"numero_compte"`
	Devise       Text   `json:"devise" csv:"devise"`
	Solde        Amount `json:"solde" csv:"solde"`
	Statut       Text   `json:"statut" csv:"statut"`
}

// ThirdParty is a client or a supplier ("fournisseur").
type ThirdParty struct {
	ID            ID     `json:"id" csv:"id"`
	Code          Text   `json:"code" csv:"code"`
	RaisonSociale Text   `json:"raison_sociale" csv:"raison_sociale"`
	Type          Text   `json:"type" csv:"type"`
	Email         Text   `json:"email" csv:"email"`
	Telephone     Text   `json:"telephone" csv:"telephone"`
	Ville         Text   `json:"ville" csv:"ville"`
	Solde         Amount `json:"solde" csv:"solde"`
	Statut        Text   `json:"statut" csv:"statut"`
}

// Transaction is a cash operation: an inflow ("entree"), an outflow ("sortie") or a
// transfer ("virement") on an account.
type Transaction struct {
	ID            ID     `json:"id" csv:"id"`
	Reference     Text   `json:"reference" csv:"reference"`
	Date          Date   `json:"date_operation" csv:"date_operation"`
	Libelle       Text   `json:"libelle" csv:"libelle"`
	Type          Text   `json:"type" csv:"type"`
	Montant       Amount `json:"montant" csv:"montant"`
	CompteID      ID     `json:"compte_id" csv:"compte_id"`
	CompteLibelle Text   `json:"compte_libelle" csv:"compte_libelle"`
	CategorieID   ID     `json:"categorie_id" csv:"categorie_id"`
	CategorieNom  Text   `json:"categorie_nom" csv:"categorie_nom"`
	TiersID       ID     `json:"tiers_id" csv:"tiers_id"`
	TiersNom      Text   `json:"tiers_nom" csv:"tiers_nom"`
	ModePaiement  Text   `json:"mode_paiement" csv:"mode_paiement"`
	Statut        Text   `json:"statut" csv:"statut"`
}

// Category classifies operations as income ("recette") or expense ("depense").
type Category struct {
	ID          ID   `json:"id" csv:"id"`
	Code        Text `json:"code" csv:"code"`
	Nom         Text `json:"nom" csv:"nom"`
	Type        Text `json:"type" csv:"type"`
	Description Text `json:"description" csv:"description"`
	Couleur     Text `json:"couleur" csv:"couleur"`
}
