package domain

// Identity é o resultado de um token validado pelo serviço de autenticação.
// Claims guarda o corpo completo da resposta de validação.
type Identity struct {
	UserID string
	FarmID string
	Claims map[string]any
}

// CallerFarmID devolve a fazenda do chamador: farm_id quando informado, senão user_id.
func (i Identity) CallerFarmID() string {
	if i.FarmID != "" {
		return i.FarmID
	}
	return i.UserID
}
