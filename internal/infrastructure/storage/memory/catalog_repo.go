package memory

import (
	"context"
	"sort"
	"strings"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/entity"
	"receiptflow/internal/core/id"
	"receiptflow/internal/domain"
	"receiptflow/internal/domain/catalogs/product"
	"receiptflow/internal/domain/catalogs/supplier"
)

// catalogRepo is the map-backed domain.CatalogRepository shared by directories.
type catalogRepo[T entity.Validatable] struct {
	s          *Store
	entityName string
	table      func(st *state) map[id.ID]T
	catalog    func(T) *entity.Catalog
	clone      func(T) T
}

func (r *catalogRepo[T]) Create(ctx context.Context, e T) error {
	c := r.catalog(e)
	return r.s.write(ctx, func(st *state) error {
		tbl := r.table(st)
		if _, ok := tbl[c.ID]; ok {
			return apperror.NewDuplicate(r.entityName, "id", c.ID.String())
		}
		for _, existing := range tbl {
			if strings.EqualFold(r.catalog(existing).Code, c.Code) {
				return apperror.NewDuplicate(r.entityName, "code", c.Code)
			}
		}
		tbl[c.ID] = r.clone(e)
		return nil
	})
}

func (r *catalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	var out T
	err := r.s.read(func(st *state) error {
		e, ok := r.table(st)[entityID]
		if !ok {
			return apperror.NewNotFound(r.entityName, entityID.String())
		}
		out = r.clone(e)
		return nil
	})
	return out, err
}

func (r *catalogRepo[T]) GetByCode(ctx context.Context, code string) (T, error) {
	var out T
	err := r.s.read(func(st *state) error {
		for _, e := range r.table(st) {
			if strings.EqualFold(r.catalog(e).Code, code) {
				out = r.clone(e)
				return nil
			}
		}
		return apperror.NewNotFound(r.entityName, code)
	})
	return out, err
}

func (r *catalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	filter.Normalize()
	res := domain.ListResult[T]{
		Items:  []T{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	err := r.s.read(func(st *state) error {
		q := strings.ToLower(filter.Search)
		var matched []T
		for _, e := range r.table(st) {
			c := r.catalog(e)
			if len(filter.IDs) > 0 && !containsID(filter.IDs, c.ID) {
				continue
			}
			if q != "" && !strings.Contains(strings.ToLower(c.Code), q) && !strings.Contains(strings.ToLower(c.Name), q) {
				continue
			}
			matched = append(matched, e)
		}

		desc := strings.HasPrefix(filter.OrderBy, "-")
		byCode := strings.TrimPrefix(filter.OrderBy, "-") == "code"
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := r.catalog(matched[i]), r.catalog(matched[j])
			if desc {
				a, b = b, a
			}
			if byCode {
				return a.Code < b.Code
			}
			if a.Name == b.Name {
				return a.Code < b.Code
			}
			return a.Name < b.Name
		})

		res.TotalCount = int64(len(matched))
		for i := filter.Offset; i < len(matched) && len(res.Items) < filter.Limit; i++ {
			res.Items = append(res.Items, r.clone(matched[i]))
		}
		return nil
	})
	return res, err
}

func (r *catalogRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	var ok bool
	err := r.s.read(func(st *state) error {
		_, ok = r.table(st)[entityID]
		return nil
	})
	return ok, err
}

func (r *catalogRepo[T]) Missing(ctx context.Context, ids []id.ID) ([]id.ID, error) {
	var missing []id.ID
	err := r.s.read(func(st *state) error {
		tbl := r.table(st)
		for _, entityID := range ids {
			if _, ok := tbl[entityID]; !ok {
				missing = append(missing, entityID)
			}
		}
		return nil
	})
	return missing, err
}

// NewProductRepo returns the product directory backed by s.
func NewProductRepo(s *Store) product.Repository {
	return &catalogRepo[*product.Product]{
		s:          s,
		entityName: "product",
		table:      func(st *state) map[id.ID]*product.Product { return st.products },
		catalog:    func(p *product.Product) *entity.Catalog { return &p.Catalog },
		clone: func(p *product.Product) *product.Product {
			c := *p
			return &c
		},
	}
}

// NewSupplierRepo returns the supplier directory backed by s.
func NewSupplierRepo(s *Store) supplier.Repository {
	return &catalogRepo[*supplier.Supplier]{
		s:          s,
		entityName: "supplier",
		table:      func(st *state) map[id.ID]*supplier.Supplier { return st.suppliers },
		catalog:    func(v *supplier.Supplier) *entity.Catalog { return &v.Catalog },
		clone: func(v *supplier.Supplier) *supplier.Supplier {
			c := *v
			return &c
		},
	}
}
