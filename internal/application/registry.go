package application

import (
	"fmt"

	"github.com/bnema/hfmctl/internal/domain"
)

const (
	classSessionOM            = "oracle.epm.fm.domainobject.application.SessionOM"
	classDataOM               = "oracle.epm.fm.domainobject.data.DataOM"
	classLoadExtractOM        = "oracle.epm.fm.domainobject.loadextract.LoadExtractOM"
	classAdministrationOM     = "oracle.epm.fm.domainobject.administration.AdministrationOM"
	classServiceClientFactory = "oracle.epm.fm.common.service.ServiceClientFactory"
	classHSSUtilManager       = "oracle.epm.fm.hssservice.HSSUtilManager"
	actionPackage             = "oracle.epm.fm.actions."
)

// Registry is the single source of capability candidates, filtered for the
// configured server build.
type Registry struct {
	build   string
	profile domain.Profile
}

// NewRegistry starts from the built-in profile and applies each override in
// order.
func NewRegistry(build string, overrides ...domain.Profile) (*Registry, error) {
	profile := DefaultProfile()
	for _, override := range overrides {
		profile = overlayProfile(profile, override)
	}

	if err := profile.Aliases.Validate(); err != nil {
		return nil, fmt.Errorf("validate alias table: %w", err)
	}

	return &Registry{build: build, profile: profile}, nil
}

func (r *Registry) Build() string { return r.build }

func (r *Registry) Profile() domain.Profile { return r.profile }

func (r *Registry) Candidates(op domain.Operation) []domain.CapabilityDescriptor {
	return r.filter(r.profile.Operations[op])
}

func (r *Registry) LoginRoutes() []domain.CapabilityDescriptor {
	return r.filter(r.profile.Login)
}

func (r *Registry) SessionOpeners() []domain.CapabilityDescriptor {
	return r.filter(r.profile.SessionOpeners)
}

func (r *Registry) StatusQueries() []domain.CapabilityDescriptor {
	return r.filter(r.profile.StatusQueries)
}

func (r *Registry) Aliases() domain.AliasTable {
	return r.profile.Aliases
}

func (r *Registry) filter(candidates []domain.CapabilityDescriptor) []domain.CapabilityDescriptor {
	out := make([]domain.CapabilityDescriptor, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.AppliesTo(r.build) {
			out = append(out, candidate)
		}
	}
	return out
}

func overlayProfile(base domain.Profile, override domain.Profile) domain.Profile {
	out := base
	out.Operations = make(map[domain.Operation][]domain.CapabilityDescriptor, len(base.Operations))
	for op, candidates := range base.Operations {
		out.Operations[op] = candidates
	}
	for op, candidates := range override.Operations {
		if len(candidates) > 0 {
			out.Operations[op] = candidates
		}
	}
	if len(override.Login) > 0 {
		out.Login = override.Login
	}
	if len(override.SessionOpeners) > 0 {
		out.SessionOpeners = override.SessionOpeners
	}
	if len(override.StatusQueries) > 0 {
		out.StatusQueries = override.StatusQueries
	}
	if override.Build != "" {
		out.Build = override.Build
	}
	out.Aliases = base.Aliases.Merge(override.Aliases)
	return out
}

// DefaultProfile lists the known signatures, object methods first and the
// keyed action classes as fallback.
func DefaultProfile() domain.Profile {
	session := domain.Shape{domain.TypeSession}
	loadExtract := func(method string, shapes ...domain.Shape) domain.CapabilityDescriptor {
		return domain.CapabilityDescriptor{Class: classLoadExtractOM, Method: method, Pattern: domain.PatternObject, Ctor: session, Shapes: shapes}
	}
	action := func(op domain.Operation) domain.CapabilityDescriptor {
		return domain.CapabilityDescriptor{
			Class:   actionPackage + string(op) + "Action",
			Method:  "execute",
			Pattern: domain.PatternAction,
			Shapes:  []domain.Shape{{domain.TypeMap}},
		}
	}
	serverTask := domain.CapabilityDescriptor{
		Class:   classDataOM,
		Method:  "executeServerTask",
		Pattern: domain.PatternObject,
		Ctor:    session,
		Shapes:  []domain.Shape{{domain.TypeTaskType, domain.TypePOVList}},
	}
	options := domain.Shape{domain.TypeOptions}

	loginShapes := []domain.Shape{
		{domain.TypeUser, domain.TypePassword, domain.TypeCluster},
		{domain.TypeUser, domain.TypePassword},
	}

	return domain.Profile{
		Operations: map[domain.Operation][]domain.CapabilityDescriptor{
			domain.OpConsolidate:        {serverTask, action(domain.OpConsolidate)},
			domain.OpTranslate:          {serverTask, action(domain.OpTranslate)},
			domain.OpLoadData:           {loadExtract("loadData", domain.Shape{domain.TypeFileList, domain.TypeOptionsList}), action(domain.OpLoadData)},
			domain.OpExtractData:        {loadExtract("extractData", options), action(domain.OpExtractData)},
			domain.OpExtractMetadata:    {loadExtract("extractMetadata", options), action(domain.OpExtractMetadata)},
			domain.OpExtractRules:       {loadExtract("extractRules", domain.Shape{domain.TypeFormat}), action(domain.OpExtractRules)},
			domain.OpExtractMemberLists: {loadExtract("extractMemberLists", domain.Shape{}), action(domain.OpExtractMemberLists)},
			domain.OpExtractSecurity:    {loadExtract("extractSecurity", options), action(domain.OpExtractSecurity)},
			domain.OpExtractJournals:    {loadExtract("extractJournals", options), action(domain.OpExtractJournals)},
		},
		Login: []domain.CapabilityDescriptor{
			{Class: classServiceClientFactory, Factory: "getInstance", Via: "getSecurityService", Method: "login", Release: "logout", Pattern: domain.PatternLogin, Shapes: loginShapes},
			{Class: classServiceClientFactory, Factory: "getInstance", Via: "getSecurityClient", Method: "login", Release: "logout", Pattern: domain.PatternLogin, Shapes: loginShapes},
			{Class: classHSSUtilManager, Via: "getSecurityManager", Method: "authenticateUser", Pattern: domain.PatternLogin, Shapes: []domain.Shape{{domain.TypeUser, domain.TypePassword}}},
		},
		SessionOpeners: []domain.CapabilityDescriptor{
			{
				Class:   classSessionOM,
				Method:  "createSession",
				Release: "closeSession",
				Pattern: domain.PatternObject,
				Shapes:  []domain.Shape{{domain.TypeToken, domain.TypeLocale, domain.TypeCluster, domain.TypeApplication}},
			},
		},
		StatusQueries: []domain.CapabilityDescriptor{
			{
				Class:   classAdministrationOM,
				Method:  "getCurrentTaskProgress",
				Pattern: domain.PatternObject,
				Ctor:    session,
				Shapes:  []domain.Shape{{domain.TypeTaskIDs}},
			},
		},
		Aliases: domain.DefaultAliases(),
	}
}
