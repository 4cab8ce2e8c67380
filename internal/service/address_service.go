package service

import (
	"context"
	"errors"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository"

	"github.com/google/uuid"
)

type AddressService interface {
	Create(ctx context.Context, p policy.Principal, req *CreateAddressRequest) (*model.Address, error)
	List(ctx context.Context, p policy.Principal) ([]model.Address, error)
	Update(ctx context.Context, p policy.Principal, id uuid.UUID, req *UpdateAddressRequest) (*model.Address, error)
	Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error
}

type CreateAddressRequest struct {
	StreetAddress string `json:"street_address" validate:"required,max=255"`
	City          string `json:"city" validate:"required,max=100"`
	State         string `json:"state" validate:"omitempty,max=100"`
	PostalCode    string `json:"postal_code" validate:"omitempty,max=20"`
	Country       string `json:"country" validate:"required,max=100"`
	IsDefault     bool   `json:"is_default"`
}

type UpdateAddressRequest struct {
	StreetAddress *string `json:"street_address" validate:"omitempty,min=1,max=255"`
	City          *string `json:"city" validate:"omitempty,min=1,max=100"`
	State         *string `json:"state" validate:"omitempty,max=100"`
	PostalCode    *string `json:"postal_code" validate:"omitempty,max=20"`
	Country       *string `json:"country" validate:"omitempty,min=1,max=100"`
	IsDefault     *bool   `json:"is_default"`
}

type addressService struct {
	store repository.Store
}

func NewAddressService(store repository.Store) AddressService {
	return &addressService{store: store}
}

func (s *addressService) Create(ctx context.Context, p policy.Principal, req *CreateAddressRequest) (*model.Address, error) {
	if err := policy.Authorize(p, policy.AddressManage, p.UserID); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	address := &model.Address{
		UserID:        p.UserID,
		StreetAddress: req.StreetAddress,
		City:          req.City,
		State:         req.State,
		PostalCode:    req.PostalCode,
		Country:       req.Country,
		IsDefault:     req.IsDefault,
	}
	address.CreatedBy = actor(p)
	address.UpdatedBy = actor(p)

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Addresses().Create(ctx, address); err != nil {
			return apperror.Database("failed to create address", err)
		}
		if address.IsDefault {
			if err := tx.Addresses().ClearDefault(ctx, p.UserID, address.ID); err != nil {
				return apperror.Database("failed to update default address", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *addressService) List(ctx context.Context, p policy.Principal) ([]model.Address, error) {
	if err := policy.Authorize(p, policy.AddressManage, p.UserID); err != nil {
		return nil, err
	}
	addresses, err := s.store.Addresses().FindByUser(ctx, p.UserID)
	if err != nil {
		return nil, apperror.Database("failed to list addresses", err)
	}
	return addresses, nil
}

func (s *addressService) Update(ctx context.Context, p policy.Principal, id uuid.UUID, req *UpdateAddressRequest) (*model.Address, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var address *model.Address
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		address, err = tx.Addresses().FindByID(ctx, id)
		if err != nil {
			return lookupErr(err, "Address")
		}
		if err := authorizeOwned(p, policy.AddressManage, address.UserID, "Address"); err != nil {
			return err
		}

		if req.StreetAddress != nil {
			address.StreetAddress = *req.StreetAddress
		}
		if req.City != nil {
			address.City = *req.City
		}
		if req.State != nil {
			address.State = *req.State
		}
		if req.PostalCode != nil {
			address.PostalCode = *req.PostalCode
		}
		if req.Country != nil {
			address.Country = *req.Country
		}
		if req.IsDefault != nil {
			address.IsDefault = *req.IsDefault
		}
		address.UpdatedBy = actor(p)

		if err := tx.Addresses().Update(ctx, address); err != nil {
			return apperror.Database("failed to update address", err)
		}
		if address.IsDefault {
			if err := tx.Addresses().ClearDefault(ctx, address.UserID, address.ID); err != nil {
				return apperror.Database("failed to update default address", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *addressService) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	address, err := s.store.Addresses().FindByID(ctx, id)
	if err != nil {
		return lookupErr(err, "Address")
	}
	if err := authorizeOwned(p, policy.AddressManage, address.UserID, "Address"); err != nil {
		return err
	}
	if err := s.store.Addresses().Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperror.NotFound("Address not found")
		case errors.Is(err, repository.ErrForeignKey):
			return apperror.Conflict("Address is used by an existing order")
		}
		return apperror.Database("failed to delete address", err)
	}
	return nil
}
